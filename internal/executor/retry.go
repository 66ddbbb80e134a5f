package executor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/alanyoungcy/updownbot/internal/domain"
)

// RetryPolicy bounds how a transient network failure is retried: a hard
// maximum attempt count and exponential backoff with a delay cap. Only
// errors classified retryable by domain.Retryable are retried; validation
// and auth failures surface immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	BackoffBase float64
}

// Delay returns the backoff before the given attempt (1-based). The first
// attempt has no delay.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}
	d := time.Duration(float64(p.BaseDelay) * math.Pow(p.BackoffBase, float64(attempt-2)))
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Do invokes fn up to MaxAttempts times, sleeping the backoff delay between
// attempts. It stops early on success, on a non-retryable error, or when
// ctx is cancelled. The last error is returned when all attempts fail.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if delay := p.Delay(attempt); delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !domain.Retryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("retries exhausted after %d attempts: %w", p.MaxAttempts, lastErr)
}
