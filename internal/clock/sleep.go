package clock

import (
	"context"
	"time"
)

// SleepWithContext blocks for the duration, or returns the context error if
// the context ends first.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
