package pipeline

import (
	"context"
	"time"
)

// DefaultRetryDelays returns the backoff delays for n retries,
// doubling from 1s: 1s, 2s, 4s, ...
func DefaultRetryDelays(retries int) []time.Duration {
	delays := make([]time.Duration, 0, retries)
	d := time.Second
	for i := 0; i < retries; i++ {
		delays = append(delays, d)
		d *= 2
	}
	return delays
}

// Retry runs fn with backoff retries: one initial attempt plus one
// retry per delay. onRetry, if provided, is called before each retry
// sleep with the upcoming attempt number and the error that caused it.
func Retry[T any](ctx context.Context, delays []time.Duration, fn func(ctx context.Context) (T, error), onRetry func(attempt int, err error)) (T, error) {
	var zero T
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt >= maxAttempts-1 {
			break
		}
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if onRetry != nil {
			onRetry(attempt+2, err)
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}
	return zero, lastErr
}
