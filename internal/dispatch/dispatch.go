// Package dispatch implements the supervised dispatch loop (C7): claims
// batches of pending events, matches them against the trigger registry,
// serializes handler execution per scope, and acks or nacks each claimed
// event based on the aggregated outcome of its matching triggers.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cuemby/reflex-dispatch/internal/dispatcherr"
	"github.com/cuemby/reflex-dispatch/internal/event"
	"github.com/cuemby/reflex-dispatch/internal/handlerctx"
	"github.com/cuemby/reflex-dispatch/internal/lockmgr"
	"github.com/cuemby/reflex-dispatch/internal/notify"
	"github.com/cuemby/reflex-dispatch/internal/obs"
	"github.com/cuemby/reflex-dispatch/internal/store"
	"github.com/cuemby/reflex-dispatch/internal/trigger"
)

// Config holds the dispatch loop's concurrency and polling knobs:
// `max_concurrent`, `claim_batch_size`, and `notify_poll_timeout_seconds`.
type Config struct {
	EventTypes     []string // nil means "all types"
	MaxConcurrent  int
	ClaimBatchSize int
	PollTimeout    time.Duration
	ScopeLockWait  time.Duration // 0 means wait indefinitely
	DrainTimeout   time.Duration
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent:  10,
		ClaimBatchSize: 100,
		PollTimeout:    5 * time.Second,
		ScopeLockWait:  0,
		DrainTimeout:   30 * time.Second,
	}
}

// Loop is the supervised, long-running dispatch loop.
type Loop struct {
	store    store.Store
	channel  notify.Channel
	registry *trigger.Registry
	locks    lockmgr.Manager
	metrics  *obs.Metrics
	tracer   trace.Tracer
	logger   *slog.Logger
	cfg      Config

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewLoop constructs a Loop. metrics and tracer may be nil; a nil tracer
// falls back to a no-op tracer via trace.NewNoopTracerProvider.
func NewLoop(s store.Store, channel notify.Channel, registry *trigger.Registry, locks lockmgr.Manager, cfg Config, metrics *obs.Metrics, tracer trace.Tracer, logger *slog.Logger) *Loop {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.ClaimBatchSize <= 0 {
		cfg.ClaimBatchSize = DefaultConfig().ClaimBatchSize
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultConfig().PollTimeout
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = DefaultConfig().DrainTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = trace.NewNoopTracerProvider().Tracer(obs.TracerName)
	}
	return &Loop{
		store:    s,
		channel:  channel,
		registry: registry,
		locks:    locks,
		metrics:  metrics,
		tracer:   tracer,
		logger:   logger,
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Run claims and dispatches events until ctx is cancelled or a claim
// fails. On cancellation it stops claiming new work, waits up to
// cfg.DrainTimeout for in-flight handlers to finish, then returns nil.
// Events claimed but neither acked nor nacked at that point are left in
// `processing` (reclaim on restart is a known gap; see
// Store.ReapStaleProcessing). A Claim error that isn't ctx cancellation
// (e.g. the store is down) drains in-flight work and returns the error
// so Supervise can restart the loop with backoff instead of spinning.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("dispatch: loop starting",
		"max_concurrent", l.cfg.MaxConcurrent,
		"claim_batch_size", l.cfg.ClaimBatchSize,
	)

	for {
		select {
		case <-ctx.Done():
			l.drain()
			l.logger.Info("dispatch: loop stopped")
			return nil
		default:
		}

		claims, err := l.store.Claim(ctx, l.cfg.EventTypes, l.cfg.ClaimBatchSize)
		if err != nil {
			if ctx.Err() != nil {
				l.drain()
				return nil
			}
			l.drain()
			return fmt.Errorf("claim: %w", err)
		}

		if len(claims) == 0 {
			l.channel.Wait(ctx, l.cfg.PollTimeout)
			continue
		}

		for _, c := range claims {
			select {
			case l.sem <- struct{}{}:
			case <-ctx.Done():
				l.drain()
				return nil
			}

			l.wg.Add(1)
			go func(c store.Claim) {
				defer l.wg.Done()
				defer func() { <-l.sem }()
				l.processEvent(ctx, c)
			}(c)
		}
	}
}

// drain waits up to cfg.DrainTimeout for in-flight handlers to finish.
func (l *Loop) drain() {
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(l.cfg.DrainTimeout):
		l.logger.Warn("dispatch: drain deadline exceeded, some handlers may still be running")
	}
}

// processEvent runs every matching trigger for one claimed event in
// priority order, under its scope lock, then acks or nacks based on the
// aggregated outcome: best-effort, no short-circuit on the first trigger
// failure.
func (l *Loop) processEvent(ctx context.Context, c store.Claim) {
	triggers := l.registry.Match(c.Event)

	ctx, span := l.tracer.Start(ctx, obs.SpanProcessEvent, trace.WithAttributes(
		attribute.String("event.id", c.Event.ID),
		attribute.String("event.type", c.Event.Type),
		attribute.Int("trigger.count", len(triggers)),
	))
	defer span.End()

	if l.metrics != nil {
		l.metrics.Claims.WithLabelValues(c.Event.Type).Inc()
	}

	if len(triggers) == 0 {
		// Nothing to run: the event falls through to the ack below.
		l.logger.Debug("dispatch: no triggers matched", "event_id", c.Event.ID, "event_type", c.Event.Type)
	}

	var failures []string
	for _, t := range triggers {
		if err := l.runTrigger(ctx, t, c.Event); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", t.Name, err))
		}
	}

	if len(failures) > 0 {
		span.SetStatus(codes.Error, "one or more triggers failed")
		combined := dispatcherr.New(dispatcherr.CodeHandlerFailure, strings.Join(failures, "; "))
		if err := l.store.Nack(ctx, c.Token, combined); err != nil {
			l.logger.Error("dispatch: nack failed", "event_id", c.Event.ID, "error", err)
		}
		if l.metrics != nil {
			l.metrics.Nacks.WithLabelValues("retry").Inc()
		}
		return
	}

	if err := l.store.Ack(ctx, c.Token); err != nil {
		l.logger.Error("dispatch: ack failed", "event_id", c.Event.ID, "error", err)
		return
	}
	if l.metrics != nil {
		l.metrics.Acks.Inc()
	}
}

// runTrigger acquires t's scope lock, runs the handler, and releases the
// lock on every exit path.
func (l *Loop) runTrigger(ctx context.Context, t *trigger.Trigger, e event.Event) error {
	scope := t.Scope(e)

	waitStart := time.Now()
	acquired, err := l.locks.Acquire(ctx, scope, l.cfg.ScopeLockWait)
	if l.metrics != nil {
		l.metrics.LockWaitSecs.Observe(time.Since(waitStart).Seconds())
	}
	if err != nil {
		return dispatcherr.NewWithCause(dispatcherr.CodeLockTimeout, "failed to acquire scope lock: "+scope, err)
	}
	if !acquired {
		return dispatcherr.New(dispatcherr.CodeLockTimeout, "timed out acquiring scope lock: "+scope)
	}
	defer func() { _ = l.locks.Release(ctx, scope) }()

	hctx := handlerctx.New(ctx, e, scope, l.store)

	if l.metrics != nil {
		l.metrics.InFlight.Inc()
		defer l.metrics.InFlight.Dec()
	}

	start := time.Now()
	err = invokeHandler(t.Handler, hctx)
	if l.metrics != nil {
		l.metrics.HandlerSeconds.WithLabelValues(t.Name).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		l.logger.Error("dispatch: trigger failed", "trigger", t.Name, "scope", scope, "error", err)
	}
	return err
}

// invokeHandler runs h.Handle, converting a panic into a handler-failure
// error so one misbehaving trigger cannot take down the process or the
// in-flight work of every other scope.
func invokeHandler(h trigger.Handler, hctx trigger.Ctx) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = dispatcherr.New(dispatcherr.CodeHandlerFailure, "handler panicked: "+formatPanic(r))
		}
	}()
	return h.Handle(hctx)
}
