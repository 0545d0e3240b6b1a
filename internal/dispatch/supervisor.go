package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/cuemby/reflex-dispatch/internal/resilience"
)

// SupervisorRetryConfig is the backoff shape required for supervisor
// restarts: starting at 1s, capped at 60s, unlimited retries (bounded
// only by ctx cancellation).
func SupervisorRetryConfig() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:  0,
		InitialDelay: time.Second,
		MaxDelay:     60 * time.Second,
	}
}

// Supervise runs l.Run under a restart supervisor: if Run returns (which
// it only does on panic recovery or an unexpected error; graceful
// shutdown via ctx cancellation also returns nil, which stops the
// supervisor too, since there's nothing left to restart for), the
// supervisor waits an exponentially increasing delay and restarts,
// unless ctx has been cancelled.
func Supervise(ctx context.Context, l *Loop, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	return resilience.Do(ctx, "dispatch-loop", SupervisorRetryConfig(), logger, func(ctx context.Context) error {
		return runRecovering(ctx, l)
	})
}

// runRecovering runs l.Run, converting a panic into an error so the
// supervisor's retry loop restarts it instead of crashing the process.
func runRecovering(ctx context.Context, l *Loop) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recoveredPanicError{value: r}
		}
	}()
	return l.Run(ctx)
}

type recoveredPanicError struct {
	value any
}

func (e recoveredPanicError) Error() string {
	return "dispatch: loop panicked: " + formatPanic(e.value)
}

func formatPanic(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "unknown panic value"
}
