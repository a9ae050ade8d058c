package heading

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/docscope/internal/classify"
	"github.com/dgallion1/docscope/internal/doctree"
	"github.com/dgallion1/docscope/internal/stats"
)

// DefaultThreshold is the classifier confidence a heading must exceed.
const DefaultThreshold = 0.8

// Thresholds are the minimum font sizes for each heading level.
type Thresholds struct {
	H1 float64 `json:"h1"`
	H2 float64 `json:"h2"`
	H3 float64 `json:"h3"`
}

// ComputeThresholds derives H1/H2/H3 thresholds from the 90th/70th/50th
// percentiles of every known span font size. ok is false when no span
// carries a size.
func ComputeThresholds(spans []doctree.Span) (t Thresholds, ok bool) {
	sizes := make([]float64, 0, len(spans))
	for _, s := range spans {
		if s.FontSize > 0 {
			sizes = append(sizes, s.FontSize)
		}
	}
	if len(sizes) == 0 {
		return Thresholds{}, false
	}
	sizes = stats.Sorted(sizes)
	return Thresholds{
		H1: stats.Percentile(sizes, 90),
		H2: stats.Percentile(sizes, 70),
		H3: stats.Percentile(sizes, 50),
	}, true
}

// ClassificationError is returned when the text classifier fails; the
// whole document's detection is abandoned.
type ClassificationError struct {
	Page int
	Text string
	Err  error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classify span on page %d (%q): %v", e.Page, truncate(e.Text, 60), e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// Detector assigns heading levels to spans and builds outlines.
type Detector struct {
	classifier classify.Classifier
	threshold  float64
	log        *slog.Logger
}

// NewDetector returns a detector. A nil classifier disables the model rule.
func NewDetector(c classify.Classifier, threshold float64, log *slog.Logger) *Detector {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultThreshold
	}
	if log == nil {
		log = slog.Default()
	}
	return &Detector{classifier: c, threshold: threshold, log: log}
}

// Rules returns the ordered rule chain for a document with thresholds t.
func (d *Detector) Rules(t Thresholds) Chain {
	chain := Chain{SizeRule{Thresholds: t}, PatternRule{}}
	if d.classifier != nil {
		chain = append(chain, ModelRule{Classifier: d.classifier, Threshold: d.threshold})
	}
	return chain
}

// Classify returns the headings found in spans, in span order.
func (d *Detector) Classify(ctx context.Context, spans []doctree.Span) ([]doctree.Heading, error) {
	t, ok := ComputeThresholds(spans)
	if !ok {
		return nil, nil
	}
	chain := d.Rules(t)

	var headings []doctree.Heading
	for _, s := range spans {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		lvl, err := chain.Level(ctx, s, text)
		if err != nil {
			return nil, &ClassificationError{Page: s.Page, Text: text, Err: err}
		}
		if lvl != doctree.LevelNone {
			headings = append(headings, doctree.Heading{Level: lvl, Text: text, Page: s.Page})
		}
	}
	return headings, nil
}

// Detect classifies spans and assembles the outline.
func (d *Detector) Detect(ctx context.Context, spans []doctree.Span) (doctree.Outline, error) {
	headings, err := d.Classify(ctx, spans)
	if err != nil {
		return doctree.Outline{}, err
	}
	outline := BuildOutline(Title(spans), headings)
	d.log.Debug("outline detected", "title", outline.Title, "headings", len(outline.Headings))
	return outline, nil
}

// Title returns the text of the largest-font span on page 1. The first span
// wins on ties. It is empty when page 1 has no spans.
func Title(spans []doctree.Span) string {
	var best *doctree.Span
	for i := range spans {
		s := &spans[i]
		if s.Page != 1 {
			continue
		}
		if best == nil || s.FontSize > best.FontSize {
			best = s
		}
	}
	if best == nil {
		return ""
	}
	return strings.TrimSpace(best.Text)
}

// BuildOutline pairs a title with headings, preserving their order.
func BuildOutline(title string, headings []doctree.Heading) doctree.Outline {
	out := make([]doctree.Heading, len(headings))
	copy(out, headings)
	return doctree.Outline{Title: title, Headings: out}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
