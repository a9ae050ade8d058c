package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/dgallion1/docscope/internal/classify"
	"github.com/dgallion1/docscope/internal/pathstore"
	"github.com/dgallion1/docscope/internal/store"
)

const MaxRetries = 3

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if classify.IsRetryable(err) || store.IsTransient(err) {
		return true
	}
	var se *pathstore.StatusError
	return errors.As(err, &se) && se.Temporary()
}

// withRetry runs fn with exponential backoff and jitter while it fails
// with a retryable error.
func withRetry(ctx context.Context, base time.Duration, onRetry func(n uint, err error), fn func() error) error {
	jitter := max(base/2, time.Millisecond)
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(MaxRetries),
		retry.Delay(base),
		retry.MaxJitter(jitter),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxDelay(30*time.Second),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(onRetry),
		retry.LastErrorOnly(true),
	)
}
