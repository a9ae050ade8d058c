package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"

	"github.com/dgallion1/docscope/internal/textutil"
)

// DefaultDim matches the dimension of the small sentence-embedding models the
// service is usually paired with.
const DefaultDim = 384

// HashingEncoder projects unigrams and bigrams into a fixed number of
// buckets with signed feature hashing. It needs no model files or network
// and is used as the default encoder and in tests.
type HashingEncoder struct {
	dim int
}

func NewHashingEncoder(dim int) *HashingEncoder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return &HashingEncoder{dim: dim}
}

func (e *HashingEncoder) ModelID() string { return fmt.Sprintf("hashing-%d", e.dim) }
func (e *HashingEncoder) Dim() int        { return e.dim }

func (e *HashingEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *HashingEncoder) vector(text string) []float32 {
	counts := make(map[string]int)
	words := textutil.Words(text)
	for i, w := range words {
		counts[w]++
		if i > 0 {
			counts[words[i-1]+" "+w]++
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	// Fixed summation order keeps vectors bitwise stable across calls.
	sort.Strings(terms)

	acc := make([]float64, e.dim)
	for _, term := range terms {
		h := fnv.New64a()
		h.Write([]byte(term))
		sum := h.Sum64()
		idx := int(sum % uint64(e.dim))
		weight := 1 + math.Log(float64(counts[term]))
		if sum&(1<<63) != 0 {
			weight = -weight
		}
		acc[idx] += weight
	}

	v := make([]float32, e.dim)
	for i, x := range acc {
		v[i] = float32(x)
	}
	return NormalizeL2(v)
}
