package classify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgallion1/docscope/internal/stats"
)

// Label is the binary decision of a heading text classifier.
type Label string

const (
	LabelHeading Label = "heading"
	LabelBody    Label = "body"
)

// Prediction is the outcome of classifying one text. Score is the
// classifier's confidence in Label, in [0,1].
type Prediction struct {
	Label Label   `json:"label"`
	Score float64 `json:"confidence"`
}

// IsHeading reports whether the prediction is a heading with confidence
// strictly above threshold.
func (p Prediction) IsHeading(threshold float64) bool {
	return p.Label == LabelHeading && p.Score > threshold
}

// Classifier decides whether a short text looks like a heading.
// Implementations must be safe for concurrent use.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) (Prediction, error)
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable reports whether err wraps a RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

type observed struct {
	Classifier
	latency *stats.Latency
}

// WithLatency records the latency and outcome of every call in l.
func WithLatency(c Classifier, l *stats.Latency) Classifier {
	if l == nil {
		return c
	}
	return &observed{Classifier: c, latency: l}
}

func (o *observed) Classify(ctx context.Context, text string) (Prediction, error) {
	start := time.Now()
	p, err := o.Classifier.Classify(ctx, text)
	o.latency.Observe(time.Since(start), err)
	return p, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
