package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heptiolabs/healthcheck"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/cuemby/reflex-dispatch/internal/adminhttp"
	"github.com/cuemby/reflex-dispatch/internal/adminhttp/authmw"
	"github.com/cuemby/reflex-dispatch/internal/config"
	"github.com/cuemby/reflex-dispatch/internal/dispatch"
	"github.com/cuemby/reflex-dispatch/internal/event"
	"github.com/cuemby/reflex-dispatch/internal/lockmgr"
	"github.com/cuemby/reflex-dispatch/internal/notify"
	"github.com/cuemby/reflex-dispatch/internal/obs"
	"github.com/cuemby/reflex-dispatch/internal/store"
	"github.com/cuemby/reflex-dispatch/internal/trigger"
)

// Module wires the entire dispatch core via Uber Fx, mirroring the
// teacher's internal/infra/fx.Module composition (one fx.Options block
// per concern, constructors doing exactly one thing).
var Module = fx.Options(
	ConfigModule,
	ObservabilityModule,
	EventModule,
	StoreModule,
	DispatchModule,
	AdminModule,
)

// ConfigModule provides configuration.
var ConfigModule = fx.Options(
	fx.Provide(config.Load),
)

// ObservabilityModule provides logging, metrics, and tracing.
var ObservabilityModule = fx.Options(
	fx.Provide(obs.NewLogger),
	fx.Invoke(func(logger *slog.Logger) { slog.SetDefault(logger) }),
	fx.Provide(provideMetrics),
	fx.Provide(provideTracerProvider),
	fx.Provide(provideTracer),
)

// MetricsResult exposes both the registry and the dispatch metrics it
// already has registered.
type MetricsResult struct {
	fx.Out
	Registry *prometheus.Registry
	Metrics  *obs.Metrics
}

func provideMetrics() MetricsResult {
	reg, m := obs.NewRegistry()
	return MetricsResult{Registry: reg, Metrics: m}
}

func provideTracerProvider(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*sdktrace.TracerProvider, error) {
	if !cfg.OTELEnabled {
		logger.Info("tracing disabled")
		return sdktrace.NewTracerProvider(), nil
	}

	tp, err := obs.InitTracer(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	logger.Info("tracing enabled", slog.String("endpoint", cfg.OTELExporterEndpoint))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
	return tp, nil
}

func provideTracer(tp *sdktrace.TracerProvider) trace.Tracer {
	return obs.Tracer(tp)
}

// EventModule provides the event type registry with its built-in variants
// registered.
var EventModule = fx.Options(
	fx.Provide(provideEventRegistry),
)

// provideEventRegistry registers the built-in variants on the package's
// default registry — the same one store.Postgres parses claimed payloads
// against via event.Parse — and returns it so callers can register
// additional variants before the dispatch loop starts.
func provideEventRegistry() (*event.Registry, error) {
	if err := event.RegisterBuiltins(event.Default); err != nil {
		return nil, fmt.Errorf("register builtin event variants: %w", err)
	}
	return event.Default, nil
}

// StoreModule provides the database pool, notification channel, event
// store, and scoped lock manager.
var StoreModule = fx.Options(
	fx.Provide(providePool),
	fx.Provide(provideNotifyChannel),
	fx.Provide(provideStore),
	fx.Provide(provideLockManager),
)

func providePool(lc fx.Lifecycle, cfg *config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	poolCfg.MaxConns = cfg.DBPoolMaxConns
	poolCfg.MinConns = cfg.DBPoolMinConns

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			pool.Close()
			return nil
		},
	})
	return pool, nil
}

func provideNotifyChannel(lc fx.Lifecycle, pool *pgxpool.Pool, logger *slog.Logger) notify.Channel {
	ch := notify.NewPostgres(pool, logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return ch.Close(ctx)
		},
	})
	return ch
}

func provideStore(pool *pgxpool.Pool, ch notify.Channel, cfg *config.Config, logger *slog.Logger) store.Store {
	return store.NewPostgres(pool, ch, store.Config{
		MaxAttempts:           cfg.MaxAttempts,
		RetryBaseDelaySeconds: cfg.RetryBaseDelaySeconds,
		RetryMaxDelaySeconds:  cfg.RetryMaxDelaySeconds,
	}, logger)
}

func provideLockManager(lc fx.Lifecycle, pool *pgxpool.Pool, cfg *config.Config, logger *slog.Logger) (lockmgr.Manager, error) {
	mgr, err := lockmgr.New(cfg.LockBackend, pool, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return mgr.Close(ctx)
		},
	})
	return mgr, nil
}

// DispatchModule provides the trigger registry and the supervised
// dispatch loop.
var DispatchModule = fx.Options(
	fx.Provide(trigger.NewRegistry),
	fx.Provide(provideDispatchLoop),
	fx.Invoke(startDispatchLoop),
)

func provideDispatchLoop(
	s store.Store,
	ch notify.Channel,
	registry *trigger.Registry,
	locks lockmgr.Manager,
	cfg *config.Config,
	metrics *obs.Metrics,
	tracer trace.Tracer,
	logger *slog.Logger,
) *dispatch.Loop {
	return dispatch.NewLoop(s, ch, registry, locks, dispatch.Config{
		MaxConcurrent:  cfg.MaxConcurrent,
		ClaimBatchSize: cfg.ClaimBatchSize,
		PollTimeout:    durationSeconds(cfg.NotifyPollTimeoutSeconds),
		DrainTimeout:   cfg.ShutdownTimeout,
	}, metrics, tracer, logger)
}

func startDispatchLoop(lc fx.Lifecycle, loop *dispatch.Loop, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := dispatch.Supervise(ctx, loop, logger); err != nil {
					logger.Error("dispatch: supervisor exited", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// AdminModule provides the administrative HTTP surface: health checks,
// DLQ inspection/retry, and replay.
var AdminModule = fx.Options(
	fx.Provide(provideHealthHandler),
	fx.Provide(provideAdminServer),
	fx.Invoke(startAdminServer),
)

func provideHealthHandler(pool *pgxpool.Pool) healthcheck.Handler {
	h := healthcheck.NewHandler()
	h.AddReadinessCheck("postgres", healthcheck.Async(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
		defer cancel()
		return pool.Ping(ctx)
	}, dbPingTimeout))
	h.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(100000))
	return h
}

func provideAdminServer(s store.Store, health healthcheck.Handler, registry *prometheus.Registry, logger *slog.Logger, cfg *config.Config) *adminhttp.Server {
	return adminhttp.NewServer(s, health, registry, logger, adminhttp.Config{
		RateLimitRPS: cfg.AdminRateLimitRPS,
		Auth: authmw.Config{
			Enabled:  cfg.JWTEnabled,
			Secret:   []byte(cfg.JWTSecret),
			Issuer:   cfg.JWTIssuer,
			Audience: cfg.JWTAudience,
		},
	})
}

func startAdminServer(lc fx.Lifecycle, srv *adminhttp.Server, registry *prometheus.Registry, cfg *config.Config, logger *slog.Logger) {
	httpServer := newHTTPServer(cfg, srv.Router(registry))

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Info("admin server listening", "addr", httpServer.Addr)
				if err := httpServer.ListenAndServe(); err != nil {
					logger.Error("admin server stopped", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return httpServer.Shutdown(ctx)
		},
	})
}
