package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docscope/internal/doctree"
	"github.com/dgallion1/docscope/internal/heading"
	"github.com/dgallion1/docscope/internal/parser"
	"github.com/dgallion1/docscope/internal/segment"
	"github.com/dgallion1/docscope/internal/store"
)

// Worker processes a single document job.
type Worker struct {
	detector   *heading.Detector
	store      store.Store
	log        *slog.Logger
	parserOpts parser.Options
	retryDelay time.Duration
}

func NewWorker(detector *heading.Detector, st store.Store, log *slog.Logger, opts parser.Options) *Worker {
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		detector:   detector,
		store:      st,
		log:        log,
		parserOpts: opts,
		retryDelay: time.Second,
	}
}

// Process runs the full ingest pipeline for a job and leaves it in a
// terminal state.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "name", job.Name)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parserOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		w.fail(job, "parsing", err)
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	job.releaseFileData()
	if err != nil {
		log.Error("parse failed", "error", err)
		w.fail(job, "parsing", fmt.Errorf("parse: %w", err))
		return
	}
	doc.Name = job.Name
	if len(doc.Spans) == 0 {
		log.Warn("no spans produced")
		w.fail(job, "parsing", errors.New("no extractable content"))
		return
	}

	hash := SpanHash(doc.Spans)
	job.SetParsed(len(doc.Spans), doc.Pages(), hash)
	log.Info("parsed document", "spans", len(doc.Spans), "pages", doc.Pages())

	// Phase 1.5: Dedup check
	if !job.Force {
		existing, err := w.store.ByHash(ctx, hash)
		switch {
		case err == nil:
			log.Info("duplicate document, skipping", "existing", existing)
			job.MarkDuplicate(existing)
			return
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("dedup check failed, proceeding", "error", err)
		}
	}

	// Phase 2: Detect headings
	job.SetStatus(StatusDetecting, "detecting")
	outline, err := w.detector.Detect(ctx, doc.Spans)
	if err != nil {
		log.Error("heading detection failed", "error", err)
		w.fail(job, "detecting", err)
		return
	}
	job.SetOutline(outline.Title, len(outline.Headings))

	// Phase 3: Segment
	job.SetStatus(StatusSegmenting, "segmenting")
	sections := segment.Segment(outline, doc.Spans)
	job.SetSections(len(sections))
	log.Info("segmented document", "headings", len(outline.Headings), "sections", len(sections))

	// Phase 4: Store
	job.SetStatus(StatusStoring, "storing")
	rec := &store.Record{
		Meta: doctree.Meta{
			Name:        job.Name,
			Title:       outline.Title,
			ContentHash: hash,
			Pages:       doc.Pages(),
			Headings:    len(outline.Headings),
			Sections:    len(sections),
			CreatedAt:   job.CreatedAt.UTC(),
		},
		Spans:    doc.Spans,
		Outline:  outline,
		Sections: sections,
	}
	onRetry := func(n uint, err error) {
		log.Warn("retryable store error", "attempt", n+1, "error", err)
	}
	if err := withRetry(ctx, w.retryDelay, onRetry, func() error {
		return w.store.Save(ctx, rec)
	}); err != nil {
		log.Error("store failed", "error", err)
		w.fail(job, "storing", fmt.Errorf("store: %w", err))
		return
	}

	job.SetStatus(StatusCompleted, "done")
	log.Info("ingest complete")
}

func (w *Worker) fail(job *Job, phase string, err error) {
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}
