package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

// retryBase is the linear backoff step: attempt i waits retryBase*(i+1).
var retryBase = 500 * time.Millisecond

// retry runs fn up to attempts times with linear backoff, stopping early when
// ctx is done.
func retry[T any](ctx context.Context, attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		wait := retryBase * time.Duration(i+1)
		select {
		case <-ctx.Done():
			return zero, fmt.Errorf("after %d attempts: %w", i+1, ctx.Err())
		case <-time.After(wait):
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// WithRetry retries failed completions. attempts < 1 means a single try.
func WithRetry(c domain.Completer, attempts int) domain.Completer {
	if attempts < 1 {
		attempts = 1
	}
	return CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		return retry(ctx, attempts, func() (string, error) {
			return c.Complete(ctx, prompt)
		})
	})
}
