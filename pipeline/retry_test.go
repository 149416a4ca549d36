package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fwojciec/siteport/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRetryDelays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, pipeline.DefaultRetryDelays(3))
	assert.Empty(t, pipeline.DefaultRetryDelays(0))
}

func TestRetry(t *testing.T) {
	t.Parallel()

	// Tiny delays so failing paths do not slow the suite.
	delays := []time.Duration{time.Millisecond, time.Millisecond}

	t.Run("returns first success without retrying", func(t *testing.T) {
		t.Parallel()

		calls := 0
		got, err := pipeline.Retry(context.Background(), delays, func(context.Context) (string, error) {
			calls++
			return "ok", nil
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success and reports attempts", func(t *testing.T) {
		t.Parallel()

		calls := 0
		var attempts []int
		got, err := pipeline.Retry(context.Background(), delays, func(context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", errors.New("transient")
			}
			return "ok", nil
		}, func(attempt int, err error) {
			attempts = append(attempts, attempt)
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", got)
		assert.Equal(t, 3, calls)
		assert.Equal(t, []int{2, 3}, attempts)
	})

	t.Run("returns last error after exhausting attempts", func(t *testing.T) {
		t.Parallel()

		calls := 0
		_, err := pipeline.Retry(context.Background(), delays, func(context.Context) (int, error) {
			calls++
			return 0, errors.New("persistent")
		}, nil)
		require.EqualError(t, err, "persistent")
		assert.Equal(t, 3, calls)
	})

	t.Run("canceled context stops retrying", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := pipeline.Retry(ctx, []time.Duration{time.Minute}, func(context.Context) (int, error) {
			calls++
			cancel()
			return 0, errors.New("boom")
		}, nil)
		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestDomainLimiter(t *testing.T) {
	t.Parallel()

	t.Run("allows immediate first request per domain", func(t *testing.T) {
		t.Parallel()

		limiter := pipeline.NewDomainLimiter(0.001)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		require.NoError(t, limiter.Wait(ctx, "a.example.com"))
		require.NoError(t, limiter.Wait(ctx, "b.example.com"))
	})

	t.Run("second request to same domain respects the rate", func(t *testing.T) {
		t.Parallel()

		limiter := pipeline.NewDomainLimiter(0.001)
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		require.NoError(t, limiter.Wait(ctx, "a.example.com"))
		err := limiter.Wait(ctx, "a.example.com")
		assert.Error(t, err, "should block past the context deadline")
	})

	t.Run("WaitURL buckets by host", func(t *testing.T) {
		t.Parallel()

		limiter := pipeline.NewDomainLimiter(1000)
		require.NoError(t, limiter.WaitURL(context.Background(), "https://www.example.com/blog/post"))
	})
}
