package heading

import (
	"strings"

	"github.com/dgallion1/docscope/internal/doctree"
)

const epsilon = 1e-9

// Score counts outline matches over (level, text, page) triples.
type Score struct {
	TP int `json:"tp" yaml:"tp"`
	FP int `json:"fp" yaml:"fp"`
	FN int `json:"fn" yaml:"fn"`
}

func (s Score) Precision() float64 { return float64(s.TP) / (float64(s.TP+s.FP) + epsilon) }
func (s Score) Recall() float64    { return float64(s.TP) / (float64(s.TP+s.FN) + epsilon) }

func (s Score) F1() float64 {
	p, r := s.Precision(), s.Recall()
	return 2 * p * r / (p + r + epsilon)
}

// Add accumulates another score.
func (s Score) Add(o Score) Score {
	return Score{TP: s.TP + o.TP, FP: s.FP + o.FP, FN: s.FN + o.FN}
}

type key struct {
	level doctree.Level
	text  string
	page  int
}

func keys(o doctree.Outline) map[key]bool {
	set := make(map[key]bool, len(o.Headings))
	for _, h := range o.Headings {
		set[key{h.Level, strings.TrimSpace(h.Text), h.Page}] = true
	}
	return set
}

// Evaluate compares a predicted outline against ground truth. Duplicate
// headings count once.
func Evaluate(pred, truth doctree.Outline) Score {
	p, g := keys(pred), keys(truth)
	var s Score
	for k := range p {
		if g[k] {
			s.TP++
		} else {
			s.FP++
		}
	}
	for k := range g {
		if !p[k] {
			s.FN++
		}
	}
	return s
}
