// Package notify provides the dispatch loop's wake-signal abstraction: a
// non-blocking, best-effort broadcast carrying event ids, backed either
// by PostgreSQL LISTEN/NOTIFY or an in-memory fanout for tests.
package notify

import (
	"context"
	"time"
)

// Channel is a process-level wake signal. Emit never blocks the
// publisher; Wait blocks the caller until either a notification arrives
// or timeout elapses, guaranteeing forward progress even if every
// notification is lost.
type Channel interface {
	// Emit publishes payload (typically an event id) to any current
	// waiters. Lossy: if nobody is waiting, the notification may be
	// dropped.
	Emit(ctx context.Context, payload string)

	// Wait blocks until a notification arrives, timeout elapses, or ctx
	// is cancelled. Returns the notification payload (empty on timeout).
	Wait(ctx context.Context, timeout time.Duration) (payload string, woke bool)

	// Close releases any underlying resources (e.g. the dedicated LISTEN
	// connection).
	Close(ctx context.Context) error
}
