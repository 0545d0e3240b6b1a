// Package trigger implements the priority-ordered table of (filter ->
// handler, scope-fn) bindings that the dispatch loop matches events
// against.
package trigger

import (
	"sort"
	"sync"

	"github.com/cuemby/reflex-dispatch/internal/event"
	"github.com/cuemby/reflex-dispatch/internal/filter"
)

// Handler is the opaque, user-supplied callable a trigger invokes.
// Implementations are arbitrary; returning an error signals failure and
// causes the claimed event to be nacked.
type Handler interface {
	Handle(ctx Ctx) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx Ctx) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx Ctx) error { return f(ctx) }

// Ctx is the minimal surface a trigger's handler sees, kept here to avoid
// an import cycle with internal/handlerctx (which implements it).
type Ctx interface {
	Event() event.Event
	Scope() string
}

// ScopeFunc extracts the locking scope key for an event. The default is
// the event's Source field.
type ScopeFunc func(event.Event) string

// DefaultScopeFunc returns e.Source.
func DefaultScopeFunc(e event.Event) string { return e.Source }

// Trigger binds a filter to a handler with a priority and a scope
// extractor.
type Trigger struct {
	Name     string
	Filter   filter.Filter
	Handler  Handler
	ScopeFn  ScopeFunc
	Priority int
}

// Matches reports whether the trigger's filter accepts e.
func (t *Trigger) Matches(e event.Event, ctx *filter.Context) bool {
	return t.Filter.Matches(e, ctx)
}

// Scope returns the locking scope for e, falling back to DefaultScopeFunc
// when ScopeFn is nil.
func (t *Trigger) Scope(e event.Event) string {
	if t.ScopeFn == nil {
		return DefaultScopeFunc(e)
	}
	return t.ScopeFn(e)
}

// Registry is the in-memory, priority-ordered table of triggers. Mutated
// only by Register/Unregister/Clear; Match is safe to call concurrently
// with other reads.
type Registry struct {
	mu       sync.RWMutex
	triggers []*Trigger
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// Register adds a trigger and keeps the live list sorted by priority
// descending, ties broken by registration order (stable sort).
func (r *Registry) Register(t *Trigger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = append(r.triggers, t)
	sort.SliceStable(r.triggers, func(i, j int) bool {
		return r.triggers[i].Priority > r.triggers[j].Priority
	})
}

// Unregister removes the trigger with the given name, returning whether it
// was found. O(N) on the live list.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, t := range r.triggers {
		if t.Name == name {
			r.triggers = append(r.triggers[:i], r.triggers[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the trigger with the given name, if registered.
func (r *Registry) Get(name string) (*Trigger, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range r.triggers {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// Match returns every trigger whose filter accepts e, in priority order
// (highest first, registration order breaking ties).
func (r *Registry) Match(e event.Event) []*Trigger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := make([]*Trigger, 0, len(r.triggers))
	for _, t := range r.triggers {
		if t.Matches(e, nil) {
			matched = append(matched, t)
		}
	}
	return matched
}

// All returns a snapshot of every registered trigger, in priority order.
func (r *Registry) All() []*Trigger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Trigger, len(r.triggers))
	copy(out, r.triggers)
	return out
}

// Clear removes every registered trigger.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.triggers = nil
}

// Default is the process-global registry used by MustRegister, mirroring
// the original reflex.agent.triggers global-registry convenience.
var Default = NewRegistry()

// MustRegister registers t on the default registry.
func MustRegister(t *Trigger) { Default.Register(t) }
