package nav

import (
	"context"
	"time"
)

type WaitOutcome int

const (
	SATISFIED WaitOutcome = iota
	TIMED_OUT
	CANCELLED
)

var WaitOutcomeStringMap = map[WaitOutcome]string{
	SATISFIED: "SATISFIED",
	TIMED_OUT: "TIMED_OUT",
	CANCELLED: "CANCELLED",
}

// WaitUntil polls pred every poll interval until it reports true, the
// timeout elapses, or ctx is cancelled. pred is evaluated once up front, so
// an already-true condition returns SATISFIED without sleeping and without
// consulting the timeout. There is no busy spin: between evaluations the
// caller is parked on the ticker. poll must be positive; controller
// configs validate that before any wait runs.
func WaitUntil(ctx context.Context, pred func() bool, poll, timeout time.Duration) WaitOutcome {
	if pred() {
		return SATISFIED
	}
	if ctx.Err() != nil {
		return CANCELLED
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return CANCELLED
		case <-deadline.C:
			return TIMED_OUT
		case <-ticker.C:
			if pred() {
				return SATISFIED
			}
		}
	}
}
