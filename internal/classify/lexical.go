package classify

import (
	"context"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// LexicalClassifier is a small logistic model over surface features of a
// line of text. It needs no network access and is deterministic.
type LexicalClassifier struct{}

func NewLexicalClassifier() *LexicalClassifier { return &LexicalClassifier{} }

func (*LexicalClassifier) Name() string { return "lexical-logistic-v1" }

var numberedPrefix = regexp.MustCompile(`^(\d+(\.\d+)*\.|\d+(\.\d+)+|[IVXLC]+\.|[A-Z]\.)\s`)

type features struct {
	short       float64 // at most 6 words
	titleCase   float64 // fraction of words starting with an upper-case letter
	sentenceEnd float64 // ends in . ; or ,
	numbered    float64
	allCaps     float64
	colonEnd    float64
	long        float64 // more than 15 words
	mostlyDigit float64
}

var weights = struct {
	bias float64
	features
}{
	bias: -2.0,
	features: features{
		short:       1.6,
		titleCase:   2.2,
		sentenceEnd: -2.5,
		numbered:    1.2,
		allCaps:     1.5,
		colonEnd:    0.8,
		long:        -3.0,
		mostlyDigit: -2.0,
	},
}

func extract(text string) features {
	var f features
	words := strings.Fields(text)
	if len(words) <= 6 {
		f.short = 1
	}
	if len(words) > 15 {
		f.long = 1
	}

	upper := 0
	for _, w := range words {
		r := []rune(w)
		if unicode.IsUpper(r[0]) || unicode.IsDigit(r[0]) {
			upper++
		}
	}
	if len(words) > 0 {
		f.titleCase = float64(upper) / float64(len(words))
	}

	switch {
	case strings.HasSuffix(text, ":"):
		f.colonEnd = 1
	case strings.HasSuffix(text, "."), strings.HasSuffix(text, ";"), strings.HasSuffix(text, ","):
		f.sentenceEnd = 1
	}
	if numberedPrefix.MatchString(text) {
		f.numbered = 1
		f.sentenceEnd = 0
	}

	letters, caps, digits, total := 0, 0, 0, 0
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				caps++
			}
		case unicode.IsDigit(r):
			digits++
		}
	}
	if letters >= 4 && caps == letters {
		f.allCaps = 1
	}
	if total > 0 && float64(digits)/float64(total) > 0.5 {
		f.mostlyDigit = 1
	}
	return f
}

// Probability returns P(heading | text).
func (*LexicalClassifier) Probability(text string) float64 {
	f := extract(strings.TrimSpace(text))
	w := weights.features
	z := weights.bias +
		w.short*f.short +
		w.titleCase*f.titleCase +
		w.sentenceEnd*f.sentenceEnd +
		w.numbered*f.numbered +
		w.allCaps*f.allCaps +
		w.colonEnd*f.colonEnd +
		w.long*f.long +
		w.mostlyDigit*f.mostlyDigit
	return 1 / (1 + math.Exp(-z))
}

func (c *LexicalClassifier) Classify(ctx context.Context, text string) (Prediction, error) {
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	p := c.Probability(text)
	if p >= 0.5 {
		return Prediction{Label: LabelHeading, Score: p}, nil
	}
	return Prediction{Label: LabelBody, Score: 1 - p}, nil
}
