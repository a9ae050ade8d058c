package embed

import (
	"context"
	"fmt"
	"math"
)

// Encoder turns texts into fixed-length vectors.
//
// Implementations must be deterministic for the same input text and model
// and safe for concurrent use.
type Encoder interface {
	ModelID() string
	Dim() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// EncoderConfig selects and configures an encoder backend.
type EncoderConfig struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Dim      int
}

// NewEncoder returns the encoder named by cfg.Provider.
func NewEncoder(cfg EncoderConfig) (Encoder, error) {
	switch cfg.Provider {
	case "", "hashing":
		return NewHashingEncoder(cfg.Dim), nil
	case "openai":
		return NewOpenAIEncoder(cfg)
	default:
		return nil, fmt.Errorf("unsupported embeddings provider: %s", cfg.Provider)
	}
}

// NormalizeL2 returns a new vector normalized to unit L2 norm.
func NormalizeL2(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	n := math.Sqrt(sum)
	if n == 0 {
		copy(out, v)
		return out
	}
	inv := float32(1.0 / n)
	for i := range v {
		out[i] = v[i] * inv
	}
	return out
}
