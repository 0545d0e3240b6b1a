package resilience

import (
	"context"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig configures exponential backoff retry.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryConfig returns sensible defaults for reconnect-style retry
// loops. The dispatch supervisor uses SupervisorRetryConfig instead.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  0, // 0 = unlimited, caller relies on ctx cancellation
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     30 * time.Second,
	}
}

// Do runs fn with exponential backoff (jittered, capped at cfg.MaxDelay),
// retrying any error fn returns until success, ctx cancellation, or
// cfg.MaxAttempts is exhausted (0 means unlimited).
func Do(ctx context.Context, name string, cfg RetryConfig, logger *slog.Logger, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = slog.Default()
	}

	backoff := retry.NewExponential(cfg.InitialDelay)
	backoff = retry.WithJitter(cfg.InitialDelay/4, backoff)
	backoff = retry.WithCappedDuration(cfg.MaxDelay, backoff)
	if cfg.MaxAttempts > 0 {
		backoff = retry.WithMaxRetries(uint64(cfg.MaxAttempts-1), backoff)
	}

	attempt := 0
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("resilience: retrying after failure", "name", name, "attempt", attempt, "error", err)
		return retry.RetryableError(err)
	})
}
