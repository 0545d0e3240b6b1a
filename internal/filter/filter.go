// Package filter implements the stateless and stateful predicate algebra
// used by triggers to decide whether an event is theirs to handle.
package filter

import (
	"github.com/cuemby/reflex-dispatch/internal/event"
)

// Context is the bounded, per-filter-instance state bag passed to stateful
// filters. It is owned by the trigger the filter instance belongs to; the
// zero value is a valid, empty context.
type Context struct {
	Events   []event.Event
	Metadata map[string]any
}

// Filter is a predicate over an event, optionally consulting a Context.
// Implementations that carry internal state (RateLimit, Dedupe) must be
// safe to call concurrently, since multiple dispatch workers may evaluate
// the same trigger's filter for different events at once.
type Filter interface {
	Matches(e event.Event, ctx *Context) bool
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(e event.Event, ctx *Context) bool

// Matches implements Filter.
func (f FilterFunc) Matches(e event.Event, ctx *Context) bool { return f(e, ctx) }

// And returns a filter matching when f and all of others match.
func And(f Filter, others ...Filter) Filter {
	return &andFilter{filters: append([]Filter{f}, others...)}
}

// Or returns a filter matching when f or any of others match.
func Or(f Filter, others ...Filter) Filter {
	return &orFilter{filters: append([]Filter{f}, others...)}
}

// Not returns a filter matching when f does not match.
func Not(f Filter) Filter { return &notFilter{inner: f} }

// All is an alias for And taking a plain slice, mirroring the original
// reflex.agent.filters.all_of convenience constructor.
func All(filters ...Filter) Filter { return &andFilter{filters: filters} }

// Any is an alias for Or taking a plain slice, mirroring any_of.
func Any(filters ...Filter) Filter { return &orFilter{filters: filters} }

type andFilter struct{ filters []Filter }

func (f *andFilter) Matches(e event.Event, ctx *Context) bool {
	for _, sub := range f.filters {
		if !sub.Matches(e, ctx) {
			return false
		}
	}
	return true
}

type orFilter struct{ filters []Filter }

func (f *orFilter) Matches(e event.Event, ctx *Context) bool {
	for _, sub := range f.filters {
		if sub.Matches(e, ctx) {
			return true
		}
	}
	return false
}

type notFilter struct{ inner Filter }

func (f *notFilter) Matches(e event.Event, ctx *Context) bool {
	return !f.inner.Matches(e, ctx)
}
