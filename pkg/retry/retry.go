// Package retry provides a bounded exponential-backoff combinator applied
// uniformly at every I/O boundary, replacing ad-hoc wrapped closures at
// call sites.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rpattn/rowsync/internal/domain"
)

// Options bounds one retried operation.
type Options struct {
	// Name tags the operation in the exhaustion error for diagnosis.
	Name string
	// MaxAttempts is the total number of attempts, first try included.
	MaxAttempts int
	// InitialDelay seeds the backoff: delay before attempt n+1 is
	// InitialDelay * 2^n plus up to 20% jitter.
	InitialDelay time.Duration
}

// jitterFraction caps the random addition to each backoff delay.
const jitterFraction = 0.2

// Do executes fn, retrying dependency failures with exponential backoff and
// jitter. Validation and configuration errors are caller mistakes and are
// returned immediately. On exhaustion the last cause is wrapped in a
// dependency error tagged with the operation name.
func Do[T any](ctx context.Context, opts Options, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := backoff(opts.InitialDelay, attempt-1)
			select {
			case <-ctx.Done():
				return zero, domain.DependencyError(opts.Name, "cancelled while waiting to retry", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !domain.Retryable(err) {
			return zero, err
		}
		lastErr = err
	}

	return zero, domain.DependencyError(
		opts.Name,
		fmt.Sprintf("exhausted %d attempts", opts.MaxAttempts),
		lastErr,
	)
}

func backoff(initial time.Duration, exponent int) time.Duration {
	if initial <= 0 {
		initial = 100 * time.Millisecond
	}
	delay := initial << uint(exponent)
	jitter := time.Duration(rand.Float64() * jitterFraction * float64(delay))
	return delay + jitter
}
