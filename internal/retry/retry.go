// Package retry provides a bounded-retry combinator for network operations.
package retry

import (
	"context"
	"time"

	"github.com/pawanpaudel93/ao-deploy/internal/ctxlog"
)

// Backoff maps a 1-based attempt number to the delay observed before the
// next attempt.
type Backoff func(attempt int) time.Duration

// Constant returns a Backoff that always waits d.
func Constant(d time.Duration) Backoff {
	return func(int) time.Duration { return d }
}

// Exponential returns a Backoff that doubles the base delay on every failed
// attempt: base, 2*base, 4*base, ...
func Exponential(base time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return base << (attempt - 1)
	}
}

// Do invokes op up to attempts times, sequentially, waiting backoff(n) after
// the n-th failure. The first success wins; once attempts are exhausted the
// last error is returned unchanged. A nil backoff means no delay between
// attempts. Context cancellation cuts the wait short and returns ctx.Err().
func Do[T any](ctx context.Context, attempts int, backoff Backoff, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		ctxlog.FromContext(ctx).Debug("Operation failed, retrying.", "attempt", attempt, "maxAttempts", attempts, "error", err)

		var delay time.Duration
		if backoff != nil {
			delay = backoff(attempt)
		}
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			case <-timer.C:
			}
		}
	}
	return zero, lastErr
}
