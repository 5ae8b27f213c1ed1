package monitor

import (
	"context"
	"time"
)

// backoff sleeps for the current reconnect delay and returns the next one,
// doubling up to max. Context cancellation cuts the sleep short.
func backoff(ctx context.Context, delay, max time.Duration) (time.Duration, error) {
	timer := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return delay, ctx.Err()
	case <-timer.C:
	}

	next := delay * 2
	if next > max {
		next = max
	}
	return next, nil
}
