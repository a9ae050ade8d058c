package relevance

import (
	"errors"
	"math"
	"sort"

	"github.com/dgallion1/docscope/internal/doctree"
)

// DefaultTopK is the number of sections kept per document.
const DefaultTopK = 5

// Similarity names the measure in result metadata.
const Similarity = "cosine"

var ErrVectorLengthMismatch = errors.New("vector length mismatch")

// Cosine computes cosine similarity between two vectors of equal length,
// clamped to [-1, 1]. A zero vector scores 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrVectorLengthMismatch
	}
	var dot, na, nb float64
	for i := 0; i < len(a); i++ {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	den := math.Sqrt(na) * math.Sqrt(nb)
	if den == 0 {
		return 0, nil
	}
	return math.Max(-1, math.Min(1, dot/den)), nil
}

// Scored is a section with its similarity to the persona and its rank
// within its document (1 = most relevant).
type Scored struct {
	Document string
	Section  doctree.Section
	Score    float64
	Rank     int
}

// Score returns the cosine similarity of each section vector to persona.
func Score(persona []float32, sections [][]float32) ([]float64, error) {
	scores := make([]float64, len(sections))
	for i, v := range sections {
		s, err := Cosine(persona, v)
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}
	return scores, nil
}

// TopK orders sections by descending score, keeping input order among
// equal scores, and returns the first k with ranks 1..k. k <= 0 uses
// DefaultTopK.
func TopK(document string, sections []doctree.Section, scores []float64, k int) []Scored {
	if k <= 0 {
		k = DefaultTopK
	}
	n := min(len(sections), len(scores))
	ranked := make([]Scored, n)
	for i := 0; i < n; i++ {
		ranked[i] = Scored{Document: document, Section: sections[i], Score: scores[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	if len(ranked) > k {
		ranked = ranked[:k]
	}
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Rank scores and selects sections in one step.
func Rank(document string, persona []float32, sections []doctree.Section, vecs [][]float32, k int) ([]Scored, error) {
	scores, err := Score(persona, vecs)
	if err != nil {
		return nil, err
	}
	return TopK(document, sections, scores, k), nil
}
