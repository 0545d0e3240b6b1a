// Package event defines the typed event envelope and the process-global
// registry of event variants dispatched by the core.
package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Meta carries trace context that is propagated and derived across a
// causal chain of events.
type Meta struct {
	TraceID       string `json:"trace_id"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CausationID   string `json:"causation_id,omitempty"`
}

// Variant is implemented by every concrete event payload. EventType must
// return the same discriminator string the variant was registered under.
type Variant interface {
	EventType() string
}

// Event is the immutable, typed message handed to triggers and handlers.
// Callers receive it by value and must not mutate Payload in place.
type Event struct {
	ID        string
	Type      string
	Source    string
	Timestamp time.Time
	Meta      Meta
	Payload   Variant
}

// New builds an Event around a Variant, filling in defaults for fields the
// caller leaves zero. ID defaults to a fresh UUID, Timestamp to now (UTC),
// and Meta.TraceID to a fresh UUID when empty.
func New(variant Variant, source string, opts ...Option) Event {
	e := Event{
		ID:        uuid.NewString(),
		Type:      variant.EventType(),
		Source:    source,
		Timestamp: time.Now().UTC(),
		Meta:      Meta{TraceID: uuid.NewString()},
		Payload:   variant,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Option customizes an Event built via New.
type Option func(*Event)

// WithID overrides the generated event id.
func WithID(id string) Option { return func(e *Event) { e.ID = id } }

// WithTimestamp overrides the generated creation timestamp.
func WithTimestamp(ts time.Time) Option { return func(e *Event) { e.Timestamp = ts } }

// WithMeta overrides the generated trace metadata.
func WithMeta(m Meta) Option { return func(e *Event) { e.Meta = m } }

// envelope is the on-the-wire (and on-disk) JSON shape of an Event. The
// payload is kept as raw JSON until the discriminator selects a variant.
type envelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Meta      Meta            `json:"meta"`
	Payload   json.RawMessage `json:"payload"`
}

// Marshal serializes an Event to the authoritative payload format stored
// in EventRecord.payload.
func Marshal(e Event) ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("event: marshal payload: %w", err)
	}
	return json.Marshal(envelope{
		ID:        e.ID,
		Type:      e.Type,
		Source:    e.Source,
		Timestamp: e.Timestamp,
		Meta:      e.Meta,
		Payload:   payload,
	})
}

// Factory produces a fresh, zero-valued Variant instance to unmarshal a
// payload into. Implementations return a pointer type, e.g. func() Variant
// { return &TimerTick{} }.
type Factory func() Variant

// ErrorKind enumerates the taxonomy of registry/parse failures.
type ErrorKind string

const (
	// KindDuplicateType is returned by Register when the discriminator is
	// already bound to a different variant.
	KindDuplicateType ErrorKind = "DUPLICATE_TYPE"
	// KindUnknownType is returned by Parse when no variant is registered
	// for the discriminator found in the raw payload.
	KindUnknownType ErrorKind = "UNKNOWN_TYPE"
	// KindSchemaError is returned by Parse when the payload fails to
	// unmarshal into, or validate against, the resolved variant.
	KindSchemaError ErrorKind = "SCHEMA_ERROR"
)

// Error wraps a registry/parse failure with its taxonomy kind.
type Error struct {
	Kind ErrorKind
	Type string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("event: %s (%s): %v", e.Kind, e.Type, e.Err)
	}
	return fmt.Sprintf("event: %s (%s)", e.Kind, e.Type)
}

func (e *Error) Unwrap() error { return e.Err }

// Registry is a process-global mapping from discriminator to variant
// schema. Safe for concurrent use; mutated only by Register.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	kinds     map[string]reflect.Type
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		kinds:     make(map[string]reflect.Type),
	}
}

// Register binds a discriminator to a variant factory. Re-registering the
// same underlying Go type under its own discriminator is idempotent.
// Registering a different type under a discriminator already claimed by
// another variant fails with a KindDuplicateType error.
func (r *Registry) Register(factory Factory) error {
	sample := factory()
	disc := sample.EventType()
	t := reflect.TypeOf(sample)

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.kinds[disc]; ok {
		if existing != t {
			return &Error{Kind: KindDuplicateType, Type: disc}
		}
		return nil
	}
	r.factories[disc] = factory
	r.kinds[disc] = t
	return nil
}

// Types returns a snapshot of the registered discriminators.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	return out
}

// Parse reads the discriminator from raw and delegates to the matching
// variant's factory and JSON unmarshaling.
func (r *Registry) Parse(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, &Error{Kind: KindSchemaError, Err: err}
	}

	r.mu.RLock()
	factory, ok := r.factories[env.Type]
	r.mu.RUnlock()
	if !ok {
		return Event{}, &Error{Kind: KindUnknownType, Type: env.Type}
	}

	variant := factory()
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, variant); err != nil {
			return Event{}, &Error{Kind: KindSchemaError, Type: env.Type, Err: err}
		}
	}
	if variant.EventType() != env.Type {
		return Event{}, &Error{
			Kind: KindSchemaError, Type: env.Type,
			Err: fmt.Errorf("variant discriminator %q does not match envelope type %q", variant.EventType(), env.Type),
		}
	}

	return Event{
		ID:        env.ID,
		Type:      env.Type,
		Source:    env.Source,
		Timestamp: env.Timestamp,
		Meta:      env.Meta,
		Payload:   variant,
	}, nil
}

// Default is the process-global registry used when callers don't thread
// an explicit *Registry through their wiring.
var Default = NewRegistry()

// Register registers a variant factory in the default registry.
func Register(factory Factory) error { return Default.Register(factory) }

// Parse parses raw bytes using the default registry.
func Parse(raw []byte) (Event, error) { return Default.Parse(raw) }

// Types lists discriminators registered in the default registry.
func Types() []string { return Default.Types() }
