// Package retry runs storage-facing operations with bounded exponential
// backoff. Only transient failures are retried; permanent failures and the
// final exhausted attempt surface the underlying error unchanged.
package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/stagegate/stagegate-backend/internal/autherrs"
)

// Do invokes op up to maxAttempts times. A permanent failure propagates
// immediately. A transient failure waits baseDelay * 2^(attempt-1) before
// the next attempt. When attempts are exhausted the last underlying error is
// returned as-is, never a synthesized "max retries" error.
func Do[T any](ctx context.Context, maxAttempts int, baseDelay time.Duration, op func(context.Context) (T, error)) (T, error) {
	var zero T
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		if !autherrs.IsTransient(err) {
			return zero, err
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}

		delay := baseDelay << (attempt - 1)
		slog.Warn("transient error, retrying",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"delay", delay.String(),
			"error", err.Error(),
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			// Keep the storage error as the cause rather than ctx.Err().
			return zero, lastErr
		}
	}
	return zero, lastErr
}
