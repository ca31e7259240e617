package bridge

import (
	"context"
	"time"
)

// Await polls cond every poll interval until it returns true, the timeout
// elapses, or ctx is cancelled. cond is checked once immediately.
//
// Returns:
//   - bool: true if cond was satisfied before the deadline
//   - error: ctx.Err() if the context was cancelled, nil otherwise
func Await(ctx context.Context, timeout, poll time.Duration, cond func() bool) (bool, error) {
	if cond() {
		return true, nil
	}
	if poll <= 0 {
		poll = 50 * time.Millisecond
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return cond(), nil
		case <-ticker.C:
			if cond() {
				return true, nil
			}
		}
	}
}
