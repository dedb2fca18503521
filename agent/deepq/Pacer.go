package deepq

import (
	"context"
	"time"
)

// PaceFunc is a scheduling hook awaited between simulation ticks. A
// host that renders the simulation can use it to slow rollout to a
// visible speed; a test harness runs with no pacer and zero delay. The
// hook must return promptly once ctx is cancelled, returning ctx.Err().
type PaceFunc func(ctx context.Context) error

// DelayPacer returns a PaceFunc that waits for d between ticks
func DelayPacer(d time.Duration) PaceFunc {
	return func(ctx context.Context) error {
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
