package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Config defines retry behavior for source fetch operations.
type Config struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultConfig returns the default retry behavior: three attempts
// spaced by a fixed one second delay.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Delay:       1 * time.Second,
	}
}

func (c Config) normalized() Config {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 1
	}
	return c
}

// Do executes fn up to MaxAttempts times with a fixed inter-attempt
// delay, returning the last error once attempts are exhausted. Every
// failure is retried; fetches are idempotent.
func Do(ctx context.Context, cfg Config, log zerolog.Logger, operation string, fn func(ctx context.Context) error) error {
	cfg = cfg.normalized()
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := fn(ctx); err == nil {
			if attempt > 1 {
				log.Info().
					Str("operation", operation).
					Int("attempt", attempt).
					Msg("operation succeeded after retry")
			}
			return nil
		} else {
			lastErr = err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		log.Warn().
			Err(lastErr).
			Str("operation", operation).
			Int("attempt", attempt).
			Int("max_attempts", cfg.MaxAttempts).
			Dur("retry_delay", cfg.Delay).
			Msg("retrying operation after error")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Delay):
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
