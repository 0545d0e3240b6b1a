// Package handlerctx implements the runtime surface a trigger's handler
// sees: the triggering event, a publish function, the locking scope, and
// a causally-linked event derivation helper.
package handlerctx

import (
	"context"

	"github.com/cuemby/reflex-dispatch/internal/event"
)

// Publisher is the subset of store.Store a handler context needs to
// publish derived events, kept narrow to avoid an import cycle with
// internal/store.
type Publisher interface {
	Publish(ctx context.Context, e event.Event) error
}

// Context is the concrete handler context passed to every trigger
// invocation, implementing trigger.Ctx.
type Context struct {
	ctx       context.Context
	event     event.Event
	scope     string
	publisher Publisher
}

// New builds a handler Context for one trigger invocation.
func New(ctx context.Context, e event.Event, scope string, publisher Publisher) *Context {
	return &Context{ctx: ctx, event: e, scope: scope, publisher: publisher}
}

// Event returns the triggering event.
func (c *Context) Event() event.Event { return c.event }

// Scope returns the locking scope chosen by the trigger for this
// invocation.
func (c *Context) Scope() string { return c.scope }

// Context returns the invocation's context.Context, for handlers that
// need it to make cancellation-aware calls of their own.
func (c *Context) Context() context.Context { return c.ctx }

// Publish inserts a new event into the store. It enters the same store
// as any other publish and wakes the same dispatch loop, possibly the
// same worker that is currently running this handler.
func (c *Context) Publish(e event.Event) error {
	return c.publisher.Publish(c.ctx, e)
}

// Derive constructs a new event around the given variant and source, with
// overrides applied on top, automatically filling causation_id and
// correlation_id. The variant is whatever the caller passes: Derive does
// not copy the triggering event's payload or check that the variant
// matches the triggering event's type.
//
//	causation_id  = triggering_event.id
//	correlation_id = triggering_event.meta.correlation_id OR triggering_event.id
//
// trace_id is copied unchanged. Derive is a pure function; it does not
// publish the result.
func (c *Context) Derive(variant event.Variant, source string, overrides ...event.Option) event.Event {
	correlationID := c.event.Meta.CorrelationID
	if correlationID == "" {
		correlationID = c.event.ID
	}

	base := []event.Option{
		event.WithMeta(event.Meta{
			TraceID:       c.event.Meta.TraceID,
			CorrelationID: correlationID,
			CausationID:   c.event.ID,
		}),
	}
	return event.New(variant, source, append(base, overrides...)...)
}
