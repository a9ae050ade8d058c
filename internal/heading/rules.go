package heading

import (
	"context"
	"regexp"
	"unicode/utf8"

	"github.com/dgallion1/docscope/internal/classify"
	"github.com/dgallion1/docscope/internal/doctree"
)

// Rule proposes a heading level for one span. LevelNone means the rule has
// no opinion. text is the span text with surrounding whitespace removed.
type Rule interface {
	Name() string
	Level(ctx context.Context, span doctree.Span, text string) (doctree.Level, error)
}

// Chain applies rules in order; the first rule that assigns a level wins,
// so later rules only fill in and never override.
type Chain []Rule

func (c Chain) Level(ctx context.Context, span doctree.Span, text string) (doctree.Level, error) {
	for _, r := range c {
		lvl, err := r.Level(ctx, span, text)
		if err != nil {
			return doctree.LevelNone, err
		}
		if lvl != doctree.LevelNone {
			return lvl, nil
		}
	}
	return doctree.LevelNone, nil
}

// SizeRule maps font size to a level using document-wide percentile thresholds.
type SizeRule struct {
	Thresholds Thresholds
}

func (SizeRule) Name() string { return "size" }

func (r SizeRule) Level(_ context.Context, span doctree.Span, _ string) (doctree.Level, error) {
	t := r.Thresholds
	switch {
	case span.FontSize >= t.H1:
		return doctree.H1, nil
	case span.FontSize >= t.H2:
		return doctree.H2, nil
	case span.FontSize >= t.H3:
		return doctree.H3, nil
	}
	return doctree.LevelNone, nil
}

var (
	allCapsRe  = regexp.MustCompile(`^[A-Z\s]{4,}$`)
	numberedRe = regexp.MustCompile(`^(\d+\.|[IVXLC]+\.)`)
)

// PatternRule promotes all-caps lines and "1." / "IV." numbered lines to H2.
type PatternRule struct{}

func (PatternRule) Name() string { return "pattern" }

func (PatternRule) Level(_ context.Context, _ doctree.Span, text string) (doctree.Level, error) {
	if allCapsRe.MatchString(text) || numberedRe.MatchString(text) {
		return doctree.H2, nil
	}
	return doctree.LevelNone, nil
}

// MinClassifierLength is the shortest text sent to the classifier, in runes.
const MinClassifierLength = 4

// ModelRule asks a text classifier and assigns H2 when it is confident the
// text is a heading.
type ModelRule struct {
	Classifier classify.Classifier
	Threshold  float64
}

func (ModelRule) Name() string { return "model" }

func (r ModelRule) Level(ctx context.Context, _ doctree.Span, text string) (doctree.Level, error) {
	if r.Classifier == nil || utf8.RuneCountInString(text) < MinClassifierLength {
		return doctree.LevelNone, nil
	}
	p, err := r.Classifier.Classify(ctx, text)
	if err != nil {
		return doctree.LevelNone, err
	}
	if p.IsHeading(r.Threshold) {
		return doctree.H2, nil
	}
	return doctree.LevelNone, nil
}
