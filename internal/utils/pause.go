package utils

import (
	"context"
	"time"
)

// Pause sleeps for interval or until ctx is done, whichever comes first.
// It returns ctx.Err() when interrupted.
func Pause(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
