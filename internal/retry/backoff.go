// Package retry provides error classification and backoff for failover.
package retry

import (
	"context"
	"time"
)

const (
	// BaseDelay is the delay before the second attempt on a model.
	BaseDelay = 1 * time.Second

	// MaxDelay caps every backoff delay.
	MaxDelay = 10 * time.Second
)

// Backoff returns the delay after the given attempt (0-indexed).
// Formula: min(BaseDelay * 2^attempt, MaxDelay). No jitter is applied.
func Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// 2^4 already exceeds the cap; avoid overflowing the shift.
	if attempt >= 4 {
		return MaxDelay
	}
	delay := BaseDelay << attempt
	if delay > MaxDelay {
		return MaxDelay
	}
	return delay
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
