// Package retry provides a small generic retry helper with linear backoff.
package retry

import (
	"context"
	"time"

	"github.com/bsv-blockchain/utxoledger/ulogger"
)

// WithLogger calls f up to attempts times, sleeping with linear backoff
// between attempts, and logging each retry through logger. It returns as
// soon as f succeeds, the context is cancelled, or attempts is exhausted.
func WithLogger[T any](ctx context.Context, logger ulogger.Logger, attempts int, backoffMultiplier int, backoffUnit time.Duration, message string, f func() (T, error)) (T, error) {
	var (
		result T
		err    error
	)

	for i := 0; i < attempts; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}

		result, err = f()
		if err == nil {
			return result, nil
		}

		if i == attempts-1 {
			break
		}

		logger.Warnf("%s (attempt %d/%d): %s", message, i+1, attempts, err)

		if sleepErr := BackoffAndSleep(ctx, i, backoffMultiplier, backoffUnit); sleepErr != nil {
			return result, sleepErr
		}
	}

	return result, err
}
