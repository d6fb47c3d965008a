package retry

import (
	"context"
	"time"
)

// Config controls the backoff behavior of Do.
type Config struct {
	MaxRetries   int           // retries after the first attempt
	InitialDelay time.Duration // delay before the first retry
	Multiplier   float64       // exponential backoff multiplier
}

// DefaultConfig retries twice with 500ms/1s delays.
func DefaultConfig() Config {
	return Config{
		MaxRetries:   2,
		InitialDelay: 500 * time.Millisecond,
		Multiplier:   2.0,
	}
}

// Do runs fn until it succeeds, the retry budget is exhausted, the
// classifier reports the error as non-retryable, or the context is
// cancelled. The last error is returned.
func Do(ctx context.Context, cfg Config, retryable func(error) bool, fn func(ctx context.Context) error) error {
	delay := cfg.InitialDelay
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	multiplier := cfg.Multiplier
	if multiplier < 1 {
		multiplier = 2.0
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * multiplier)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}
