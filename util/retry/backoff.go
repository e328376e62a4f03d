package retry

import (
	"context"
	"time"
)

var sleepFunc = func(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// BackoffAndSleep sleeps for (backoffMultiplier*attempt)+1 units of
// backoffUnit, returning early with ctx.Err() if ctx is cancelled first.
func BackoffAndSleep(ctx context.Context, attempt int, backoffMultiplier int, backoffUnit time.Duration) error {
	backoff := (backoffMultiplier * attempt) + 1
	return sleepFunc(ctx, time.Duration(backoff)*backoffUnit)
}
