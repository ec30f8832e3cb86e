package replay

import (
	"context"
	"time"
)

// withRetry calls fn until it succeeds, doubling the delay after each
// failure. onError sees every failed attempt, including the last.
func withRetry(ctx context.Context, maxRetries int, baseDelay time.Duration, onError func(attempt int, err error), fn func(context.Context) error) error {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}

	delay := baseDelay
	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if onError != nil {
			onError(attempt, err)
		}
		if attempt >= maxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
