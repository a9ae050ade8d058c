package summarize

import (
	"errors"
	"math"
	"sort"

	"github.com/dgallion1/docscope/internal/textutil"
)

var ErrNoSentences = errors.New("no sentences to rank")

// Ranker picks the indices of the n most central sentences.
type Ranker interface {
	Name() string
	Rank(sentences []string, n int) ([]int, error)
}

// TextRank ranks sentences by PageRank over a word-overlap similarity graph.
type TextRank struct {
	Damping  float64
	Epsilon  float64
	MaxIters int
}

func NewTextRank() *TextRank {
	return &TextRank{Damping: 0.85, Epsilon: 1e-4, MaxIters: 100}
}

func (*TextRank) Name() string { return "textrank" }

// Rank returns the selected indices in source order.
func (tr *TextRank) Rank(sentences []string, n int) ([]int, error) {
	if len(sentences) == 0 {
		return nil, ErrNoSentences
	}
	if n <= 0 {
		return nil, nil
	}

	words := make([][]string, len(sentences))
	for i, s := range sentences {
		words[i] = textutil.Words(s)
	}
	scores := tr.pagerank(similarityMatrix(words))

	order := make([]int, len(sentences))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
	if len(order) > n {
		order = order[:n]
	}
	sort.Ints(order)
	return order, nil
}

// similarity counts occurrences in b of each word of a, normalized by the
// log lengths of both sentences.
func similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	counts := make(map[string]int, len(b))
	for _, w := range b {
		counts[w]++
	}
	overlap := 0
	for _, w := range a {
		overlap += counts[w]
	}
	if overlap == 0 {
		return 0
	}
	norm := math.Log(float64(len(a))) + math.Log(float64(len(b)))
	if norm == 0 {
		return float64(overlap)
	}
	return float64(overlap) / norm
}

func similarityMatrix(words [][]string) [][]float64 {
	n := len(words)
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
		for j := range words {
			if i != j {
				m[i][j] = similarity(words[i], words[j])
			}
		}
	}
	return m
}

func (tr *TextRank) pagerank(weights [][]float64) []float64 {
	n := len(weights)
	outSum := make([]float64, n)
	for i := range weights {
		for _, w := range weights[i] {
			outSum[i] += w
		}
	}

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}
	base := (1 - tr.Damping) / float64(n)
	for iter := 0; iter < tr.MaxIters; iter++ {
		next := make([]float64, n)
		delta := 0.0
		for j := 0; j < n; j++ {
			sum := 0.0
			for i := 0; i < n; i++ {
				if outSum[i] > 0 {
					sum += weights[i][j] / outSum[i] * scores[i]
				}
			}
			next[j] = base + tr.Damping*sum
			delta = math.Max(delta, math.Abs(next[j]-scores[j]))
		}
		scores = next
		if delta < tr.Epsilon {
			break
		}
	}
	return scores
}
