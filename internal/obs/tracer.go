package obs

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/cuemby/reflex-dispatch/internal/config"
)

// TracerName identifies the dispatch core's own span source.
const TracerName = "github.com/cuemby/reflex-dispatch/internal/dispatch"

// SpanProcessEvent is the span name wrapping one claimed event's full
// trigger fan-out, mirroring the original Python implementation's
// "process_event" span.
const SpanProcessEvent = "dispatch.process_event"

// InitTracer initializes the OpenTelemetry tracer provider. When
// cfg.OTELEnabled is false it returns a no-op provider that exports
// nothing, so callers can always call Tracer() safely.
//
// The caller must call Shutdown on the returned provider during graceful
// shutdown to flush any buffered spans.
func InitTracer(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	const op = "obs.InitTracer"

	if !cfg.OTELEnabled {
		// A shut-down SDK provider hands out no-op tracers, whose spans
		// carry no trace/span ids and are never recorded or exported.
		tp := sdktrace.NewTracerProvider()
		if err := tp.Shutdown(ctx); err != nil {
			return nil, fmt.Errorf("%s: failed to build no-op provider: %w", op, err)
		}
		return tp, nil
	}

	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(cfg.OTELExporterEndpoint),
	}
	if cfg.OTELExporterInsecure || isLocalEndpoint(cfg.OTELExporterEndpoint) {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create exporter: %w", op, err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.DeploymentEnvironment(cfg.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create resource: %w", op, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// Tracer returns the dispatch core's named tracer off the given provider.
func Tracer(tp *sdktrace.TracerProvider) trace.Tracer {
	return tp.Tracer(TracerName)
}

func isLocalEndpoint(endpoint string) bool {
	endpoint = strings.TrimSpace(endpoint)
	return strings.HasPrefix(endpoint, "localhost:") || strings.HasPrefix(endpoint, "127.0.0.1:")
}
