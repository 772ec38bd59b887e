package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/pw-import/internal/domain"
)

// RetryPolicy bounds the fixed-delay retry of remote fetches after an
// HTTP-layer failure. MaxRetries of 0 disables retrying.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
}

// withRetry runs op until it succeeds, fails with a non-retryable error, or
// the retry budget is spent. Each retry waits the full policy delay.
func (b *Builder) withRetry(ctx context.Context, what string, op func(ctx context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := op(ctx)
		if err == nil || !domain.IsRetryable(err) {
			return err
		}
		if attempt >= b.retry.MaxRetries {
			return fmt.Errorf("%s: giving up after %d retries: %w", what, attempt, err)
		}

		b.logger.Warn("remote fetch failed, retrying",
			"what", what,
			"attempt", attempt+1,
			"max_retries", b.retry.MaxRetries,
			"delay", b.retry.Delay,
			"error", err,
		)
		b.metrics.FetchRetries.Inc()

		if !sleepWithContext(ctx, b.clock, b.retry.Delay) {
			return ctx.Err()
		}
	}
}

func sleepWithContext(ctx context.Context, clock clockwork.Clock, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	timer := clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
