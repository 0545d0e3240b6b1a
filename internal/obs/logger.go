// Package obs carries the dispatch core's ambient observability stack:
// structured logging, Prometheus metrics, and OpenTelemetry tracing.
package obs

import (
	"context"
	"log/slog"
	"os"

	"github.com/cuemby/reflex-dispatch/internal/config"
)

// Log key constants, so call sites build structured fields without
// importing log/slog directly.
const (
	KeyService   = "service"
	KeyEnv       = "env"
	KeyEventID   = "event_id"
	KeyEventType = "event_type"
	KeyScope     = "scope"
	KeyTraceID   = "trace_id"
	KeyAttempts  = "attempts"
	KeyDuration  = "duration_ms"
)

// Field constructs a structured logging attribute, mirroring slog.Any
// without requiring callers to import log/slog.
func Field(key string, value any) slog.Attr {
	return slog.Any(key, value)
}

// NewLogger creates a JSON structured logger with default service/env
// attributes attached. Log level is controlled by cfg.LogLevel.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLogLevel(cfg.LogLevel)

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler).With(
		KeyService, cfg.ServiceName,
		KeyEnv, cfg.Env,
	)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type traceIDKey struct{}

// ContextWithTraceID attaches a trace id to ctx for later log enrichment.
func ContextWithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// FromContext returns logger enriched with the trace id carried on ctx, if
// any. Call sites use this instead of threading a per-event logger by hand.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok && traceID != "" {
		return base.With(KeyTraceID, traceID)
	}
	return base
}
