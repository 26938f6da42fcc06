package retry

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

const maxAttempts = 3

// Retryable tags err as transient so DoWithDelay gives it another attempt.
// Untagged errors surface immediately.
func Retryable(err error) error {
	return retry.RetryableError(err)
}

// DoWithDelay runs fn up to three times with exponential backoff, starting at
// delay and doubling between attempts. Callers pick the base delay so tests
// can exercise the full attempt budget without real-time sleeps.
func DoWithDelay(ctx context.Context, delay time.Duration, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(maxAttempts-1, retry.NewExponential(delay))
	return retry.Do(ctx, backoff, fn)
}
