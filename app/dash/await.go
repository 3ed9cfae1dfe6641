package dash

import (
	"context"
	"time"
)

// awaitCondition polls cond until it reports true, the timeout elapses or the
// context is cancelled. It is the single wait primitive the whole workflow is
// built from.
//
// Returns (true, nil) when the condition was met, (false, nil) on timeout and
// (false, err) when cond reported a transport error or ctx was cancelled.
func awaitCondition(ctx context.Context, timeout, interval time.Duration, cond func(context.Context) (bool, error)) (bool, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		ok, err := cond(ctx)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-ticker.C:
		}
	}
}
