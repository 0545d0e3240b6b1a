// Package store persists events durably and serves the work-claim
// protocol: publish, claim-with-skip-locked, ack/nack with exponential
// backoff, replay, and dead-letter administration.
package store

import (
	"context"
	"time"

	"github.com/cuemby/reflex-dispatch/internal/event"
)

// Token identifies a claimed event for the ack/nack handshake. It is
// opaque to callers; the concrete implementation underneath is the row
// id.
type Token string

// Claim pairs an event with the token used to ack or nack it.
type Claim struct {
	Event event.Event
	Token Token
}

// DLQEntry is one dead-lettered event as listed for operator review.
type DLQEntry struct {
	Event     event.Event
	Error     string
	Attempts  int
	CreatedAt time.Time
}

// Store is the durable event log and work-claim protocol. Implementations
// must be safe for concurrent use by many callers (subscribe is typically
// called concurrently from several dispatch loop replicas).
type Store interface {
	// Publish persists event and emits a best-effort notification.
	// Returns a *dispatcherr.DomainError with code DUPLICATE_EVENT if an
	// event with the same id already exists; callers may treat this as
	// idempotent success.
	Publish(ctx context.Context, e event.Event) error

	// Claim performs one claim iteration: up to batchSize pending, due
	// rows (optionally restricted to eventTypes), locked with
	// FOR UPDATE SKIP LOCKED, transitioned to processing. Returns an
	// empty slice (not an error) when nothing is claimable.
	Claim(ctx context.Context, eventTypes []string, batchSize int) ([]Claim, error)

	// Ack marks a claimed event completed. Idempotent over already
	// completed rows.
	Ack(ctx context.Context, token Token) error

	// Nack records a handler failure. If the row's attempts (already
	// incremented by Claim) reached the store's configured max attempts,
	// the event moves to the dead-letter queue; otherwise it returns to
	// pending with an exponential backoff delay before the next claim.
	Nack(ctx context.Context, token Token, handlerErr error) error

	// Replay yields events in timestamp-ascending order over [start, end]
	// (end zero means no upper bound), optionally restricted to eventTypes.
	// Read-only.
	Replay(ctx context.Context, start, end time.Time, eventTypes []string) ([]event.Event, error)

	// DLQList returns up to limit dead-lettered events, most recent
	// first.
	DLQList(ctx context.Context, limit int) ([]DLQEntry, error)

	// DLQRetry moves one dead-lettered event back to pending. Returns
	// whether a row was affected.
	DLQRetry(ctx context.Context, id string) (bool, error)

	// DLQRetryAll bulk-transitions every dead-lettered event back to
	// pending, returning the count affected.
	DLQRetryAll(ctx context.Context) (int64, error)

	// ReapStaleProcessing returns rows stuck in processing with an event
	// timestamp before olderThan back to pending. Not called
	// automatically by any other operation; an explicit, optional
	// administrative action.
	ReapStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error)

	// Close releases any underlying resources.
	Close(ctx context.Context) error
}
