package query

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docscope/internal/doctree"
	"github.com/dgallion1/docscope/internal/embed"
	"github.com/dgallion1/docscope/internal/relevance"
	"github.com/dgallion1/docscope/internal/summarize"
)

// TitleRunes is how much section text is shown as its title.
const TitleRunes = 100

// SectionSource loads the stored sections of a document.
type SectionSource interface {
	Sections(ctx context.Context, name string) ([]doctree.Section, error)
}

// Options bound a query. Zero values select the defaults.
type Options struct {
	TopK         int
	MinDocuments int
	MaxDocuments int
	Concurrency  int
	Timeout      time.Duration
}

func (o Options) withDefaults() Options {
	if o.TopK <= 0 {
		o.TopK = relevance.DefaultTopK
	}
	if o.MinDocuments <= 0 {
		o.MinDocuments = 3
	}
	if o.MaxDocuments <= 0 {
		o.MaxDocuments = 10
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	return o
}

// Engine ranks and summarizes stored sections for persona queries.
type Engine struct {
	src        SectionSource
	encoder    *embed.Service
	summarizer *summarize.Summarizer
	opts       Options
	log        *slog.Logger
	now        func() time.Time
}

func NewEngine(src SectionSource, encoder *embed.Service, summarizer *summarize.Summarizer, opts Options, log *slog.Logger) *Engine {
	if summarizer == nil {
		summarizer = summarize.New(nil, summarize.DefaultSentences)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		src:        src,
		encoder:    encoder,
		summarizer: summarizer,
		opts:       opts.withDefaults(),
		log:        log,
		now:        time.Now,
	}
}

// Validate checks req against the engine's document bounds.
func (e *Engine) Validate(req Request) error {
	return req.Validate(e.opts.MinDocuments, e.opts.MaxDocuments)
}

// docResult is the output of one document. A nil err with no sections means
// the document had nothing eligible to rank.
type docResult struct {
	extracted []ExtractedSection
	subs      []SubSection
	err       error
}

// Run answers req. Documents are processed concurrently but assembled in
// request order. A document that fails is logged and left out; if none
// yields a section the result is ErrNoData.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if err := e.Validate(req); err != nil {
		return nil, err
	}
	start := e.now()
	queryID := uuid.NewString()
	log := e.log.With("query_id", queryID)

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	k := req.TopK
	if k <= 0 {
		k = e.opts.TopK
	}

	persona, err := e.encoder.EncodePersona(ctx, req.Persona, req.Job)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	slots := make([]docResult, len(req.Documents))
	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)
	for i, name := range req.Documents {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				slots[i] = docResult{err: err}
				return nil
			}
			slots[i] = e.document(ctx, name, persona, k)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{
		ExtractedSections:  []ExtractedSection{},
		SubSectionAnalysis: []SubSection{},
	}
	processed := 0
	for i, r := range slots {
		if r.err != nil {
			log.Warn("document skipped", "document", req.Documents[i], "error", r.err)
			continue
		}
		if len(r.extracted) == 0 {
			log.Info("document has no eligible sections", "document", req.Documents[i])
			continue
		}
		processed++
		res.ExtractedSections = append(res.ExtractedSections, r.extracted...)
		res.SubSectionAnalysis = append(res.SubSectionAnalysis, r.subs...)
	}

	if processed == 0 {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("query: %w", err)
		}
		return nil, ErrNoData
	}

	elapsed := e.now().Sub(start)
	res.Metadata = Metadata{
		QueryID:               queryID,
		InputDocuments:        req.Documents,
		Persona:               req.Persona,
		JobToBeDone:           req.Job,
		ProcessingTimestamp:   e.now().UTC().Format(time.RFC3339Nano),
		ProcessingTimeSeconds: math.Round(elapsed.Seconds()*100) / 100,
		TotalPDFsProcessed:    processed,
		ModelsUsed: ModelsUsed{
			Embeddings:    e.encoder.ModelID(),
			Similarity:    relevance.Similarity,
			Summarization: e.summarizer.Name(),
		},
	}
	log.Info("query complete",
		"documents", len(req.Documents),
		"processed", processed,
		"sections", len(res.ExtractedSections),
		"seconds", res.Metadata.ProcessingTimeSeconds)
	return res, nil
}

func (e *Engine) document(ctx context.Context, name string, persona []float32, k int) docResult {
	sections, err := e.src.Sections(ctx, name)
	if err != nil {
		return docResult{err: fmt.Errorf("load sections: %w", err)}
	}
	kept, vecs, err := e.encoder.EncodeSections(ctx, sections)
	if err != nil {
		return docResult{err: err}
	}
	if len(kept) == 0 {
		return docResult{}
	}
	ranked, err := relevance.Rank(name, persona, kept, vecs, k)
	if err != nil {
		return docResult{err: fmt.Errorf("rank: %w", err)}
	}

	var out docResult
	for _, s := range ranked {
		sum := e.summarizer.Summarize(s.Section.Text)
		if sum.Method == summarize.MethodFallback {
			e.log.Debug("summary fell back", "document", name, "section", s.Section.ID, "error", sum.Err)
		}
		out.extracted = append(out.extracted, ExtractedSection{
			Document:       name,
			PageNumber:     s.Section.PageStart,
			SectionTitle:   SectionTitle(s.Section.Text),
			ImportanceRank: s.Rank,
			Score:          s.Score,
		})
		out.subs = append(out.subs, SubSection{
			Document:      name,
			RefinedText:   sum.Text,
			PageStart:     s.Section.PageStart,
			PageEnd:       s.Section.PageEnd,
			SummaryMethod: sum.Method,
		})
	}
	return out
}

// SectionTitle returns the first TitleRunes runes of text, marked with
// "..." when cut.
func SectionTitle(text string) string {
	if utf8.RuneCountInString(text) <= TitleRunes {
		return text
	}
	return string([]rune(text)[:TitleRunes]) + "..."
}
