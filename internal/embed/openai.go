package embed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const openAIBatchSize = 256

// OpenAIEncoder calls an OpenAI-compatible embeddings endpoint.
type OpenAIEncoder struct {
	client openai.Client
	model  string
	dim    int
	seen   atomic.Int64
}

func NewOpenAIEncoder(cfg EncoderConfig) (*OpenAIEncoder, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("embeddings model is not configured")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embeddings API key is not configured")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: 60 * time.Second}),
		option.WithMaxRetries(3),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}
	return &OpenAIEncoder{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
		dim:    cfg.Dim,
	}, nil
}

func (e *OpenAIEncoder) ModelID() string { return "openai:" + e.model }

// Dim returns the requested dimension, or the dimension of the last
// response when none was requested.
func (e *OpenAIEncoder) Dim() int {
	if e.dim > 0 {
		return e.dim
	}
	return int(e.seen.Load())
}

func (e *OpenAIEncoder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += openAIBatchSize {
		end := min(start+openAIBatchSize, len(texts))
		if err := e.embedBatch(ctx, texts[start:end], out[start:end]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *OpenAIEncoder) embedBatch(ctx context.Context, texts []string, dst [][]float32) error {
	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.dim > 0 && strings.HasPrefix(e.model, "text-embedding-3") {
		params.Dimensions = openai.Int(int64(e.dim))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return fmt.Errorf("embeddings request failed: HTTP %d: %w", apiErr.StatusCode, err)
		}
		return fmt.Errorf("embeddings request: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return fmt.Errorf("embeddings response has %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(dst) {
			return fmt.Errorf("embeddings response index %d out of range", d.Index)
		}
		v := make([]float32, len(d.Embedding))
		for i, x := range d.Embedding {
			v[i] = float32(x)
		}
		dst[d.Index] = v
		e.seen.Store(int64(len(v)))
	}
	return nil
}
