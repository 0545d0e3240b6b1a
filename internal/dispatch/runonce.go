package dispatch

import (
	"context"

	"github.com/cuemby/reflex-dispatch/internal/event"
	"github.com/cuemby/reflex-dispatch/internal/handlerctx"
	"github.com/cuemby/reflex-dispatch/internal/lockmgr"
	"github.com/cuemby/reflex-dispatch/internal/trigger"
)

// RunOnce processes a single event synchronously: matches it against
// registry, runs every matching trigger under its scope lock in priority
// order, and returns every error raised. It does not claim from or
// ack/nack the store — callers (tests, operational tooling replaying one
// event) own that decision.
func RunOnce(ctx context.Context, registry *trigger.Registry, locks lockmgr.Manager, publisher handlerctx.Publisher, e event.Event) []error {
	triggers := registry.Match(e)

	var errs []error
	for _, t := range triggers {
		scope := t.Scope(e)

		acquired, err := locks.Acquire(ctx, scope, 0)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !acquired {
			continue
		}

		func() {
			defer func() { _ = locks.Release(ctx, scope) }()
			hctx := handlerctx.New(ctx, e, scope, publisher)
			if err := invokeHandler(t.Handler, hctx); err != nil {
				errs = append(errs, err)
			}
		}()
	}

	return errs
}
