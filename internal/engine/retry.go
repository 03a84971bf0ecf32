package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryConfig controls retry behavior.
// The wait before retry n is Backoff*n (linear).
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryConfig is suitable for YouTube Data API calls.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	Backoff:     time.Second,
}

// linearBackOff waits step, 2*step, 3*step, ...
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.step * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() { b.attempt = 0 }

// Permanent marks err as not worth retrying. RetryDo returns it unwrapped.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// RetryDo calls fn up to MaxAttempts times with linear backoff.
// Errors wrapped with Permanent and context cancellation stop immediately.
func RetryDo[T any](ctx context.Context, rc RetryConfig, fn func() (T, error)) (T, error) {
	attempts := rc.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	attempt := 0
	op := func() (T, error) {
		attempt++
		if attempt > 1 {
			metrics.Retries.Add(1)
		}
		result, err := fn()
		if err != nil && ctx.Err() != nil {
			return result, backoff.Permanent(ctx.Err())
		}
		return result, err
	}

	notify := func(err error, wait time.Duration) {
		slog.Debug("retrying", slog.Int("attempt", attempt), slog.Duration("wait", wait), slog.Any("error", err))
	}

	result, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(&linearBackOff{step: rc.Backoff}),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(notify),
	)
	if err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			return result, perm.Err
		}
	}
	return result, err
}
