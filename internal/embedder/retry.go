package embedder

import (
	"context"
	"time"
)

// RetryConfig tunes the exponential backoff applied to provider calls
type RetryConfig struct {
	MaxRetries int           // total attempts, not retries after the first
	BaseDelay  time.Duration // wait before the second attempt
	MaxDelay   time.Duration // ceiling the backoff never exceeds
	Multiplier float64       // growth factor between waits
}

// DefaultRetryConfig returns the backoff used for remote providers
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		BaseDelay:  time.Duration(InitialBackoffMs) * time.Millisecond,
		MaxDelay:   time.Duration(MaxBackoffMs) * time.Millisecond,
		Multiplier: BackoffMultiplier,
	}
}

// retryWithBackoff calls fn until it succeeds, attempts run out, or the
// context is cancelled. Cancellation wins over the last provider error:
// a caller that gave up gets ctx.Err(), not a stale failure.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := config.BaseDelay

	for attempt := 0; attempt < config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < config.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}
