package sqlc

import (
	"context"
	"time"
)

const insertEvent = `
INSERT INTO events (id, type, source, timestamp, payload, status, attempts)
VALUES ($1, $2, $3, $4, $5, 'pending', 0)
`

// InsertEventParams carries the fields needed to persist a new event.
type InsertEventParams struct {
	ID        string
	Type      string
	Source    string
	Timestamp time.Time
	Payload   string
}

// InsertEvent persists a new pending event row. Returns a *pgconn.PgError
// with code 23505 (unique_violation) if id already exists.
func (q *Queries) InsertEvent(ctx context.Context, arg InsertEventParams) error {
	_, err := q.db.Exec(ctx, insertEvent, arg.ID, arg.Type, arg.Source, arg.Timestamp, arg.Payload)
	return err
}

const claimPending = `
UPDATE events
SET status = 'processing', attempts = attempts + 1
WHERE id IN (
    SELECT id FROM events
    WHERE status = 'pending'
        AND (next_retry_at IS NULL OR next_retry_at <= now())
        AND ($1::text[] IS NULL OR type = ANY($1::text[]))
    ORDER BY timestamp ASC
    LIMIT $2
    FOR UPDATE SKIP LOCKED
)
RETURNING id, payload
`

// ClaimPending claims up to limit pending, due rows, optionally restricted
// to eventTypes, and returns their id/payload. A nil eventTypes claims
// every type.
func (q *Queries) ClaimPending(ctx context.Context, eventTypes []string, limit int32) ([]ClaimedEvent, error) {
	rows, err := q.db.Query(ctx, claimPending, eventTypes, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var claimed []ClaimedEvent
	for rows.Next() {
		var c ClaimedEvent
		if err := rows.Scan(&c.ID, &c.Payload); err != nil {
			return nil, err
		}
		claimed = append(claimed, c)
	}
	return claimed, rows.Err()
}

const ackEvent = `
UPDATE events SET status = 'completed', processed_at = now() WHERE id = $1
`

// AckEvent marks an event completed.
func (q *Queries) AckEvent(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, ackEvent, id)
	return err
}

const nackEvent = `
UPDATE events SET
    status = CASE WHEN attempts >= $2 THEN 'dlq' ELSE 'pending' END,
    error = $3,
    next_retry_at = CASE
        WHEN attempts >= $2 THEN NULL
        ELSE now() + (LEAST($4 * POWER(2, attempts - 1), $5) || ' seconds')::interval
    END
WHERE id = $1
`

// NackEventParams carries the backoff configuration used to compute the
// next retry time (or DLQ transition) for a failed event.
type NackEventParams struct {
	ID           string
	Error        *string
	MaxAttempts  int32
	BaseDelay    float64
	MaxDelay     float64
}

// NackEvent applies the retry/DLQ transition, using attempts as already
// incremented by ClaimPending.
func (q *Queries) NackEvent(ctx context.Context, arg NackEventParams) error {
	_, err := q.db.Exec(ctx, nackEvent, arg.ID, arg.MaxAttempts, arg.Error, arg.BaseDelay, arg.MaxDelay)
	return err
}

const deadLetterEvent = `
UPDATE events SET status = 'dlq', error = $2, next_retry_at = NULL WHERE id = $1
`

// DeadLetterEvent moves a row straight to dlq with no retry, for payloads
// that fail to parse: unparseable rows are dead-lettered immediately,
// never retried.
func (q *Queries) DeadLetterEvent(ctx context.Context, id, errMsg string) error {
	_, err := q.db.Exec(ctx, deadLetterEvent, id, errMsg)
	return err
}

const replayEvents = `
SELECT payload FROM events
WHERE timestamp >= $1
    AND ($2::timestamptz IS NULL OR timestamp <= $2::timestamptz)
    AND ($3::text[] IS NULL OR type = ANY($3::text[]))
ORDER BY timestamp ASC
`

// ReplayEvents returns payloads in the given time range, in timestamp
// order, regardless of status.
func (q *Queries) ReplayEvents(ctx context.Context, start time.Time, end *time.Time, eventTypes []string) ([]string, error) {
	rows, err := q.db.Query(ctx, replayEvents, start, end, eventTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payloads []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		payloads = append(payloads, p)
	}
	return payloads, rows.Err()
}

const listDLQ = `
SELECT id, payload, error, attempts, created_at
FROM events
WHERE status = 'dlq'
ORDER BY created_at DESC
LIMIT $1
`

// ListDLQ returns up to limit dead-lettered events, most recent first.
func (q *Queries) ListDLQ(ctx context.Context, limit int32) ([]DLQEvent, error) {
	rows, err := q.db.Query(ctx, listDLQ, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []DLQEvent
	for rows.Next() {
		var e DLQEvent
		if err := rows.Scan(&e.ID, &e.Payload, &e.Error, &e.Attempts, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

const retryDLQ = `
UPDATE events
SET status = 'pending', attempts = 0, error = NULL, next_retry_at = NULL
WHERE id = $1 AND status = 'dlq'
`

// RetryDLQ moves a single dead-lettered event back to pending. Returns
// whether a row was affected.
func (q *Queries) RetryDLQ(ctx context.Context, id string) (bool, error) {
	tag, err := q.db.Exec(ctx, retryDLQ, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const retryAllDLQ = `
UPDATE events
SET status = 'pending', attempts = 0, error = NULL, next_retry_at = NULL
WHERE status = 'dlq'
`

// RetryAllDLQ bulk-transitions every dead-lettered event back to pending,
// returning the number of rows affected.
func (q *Queries) RetryAllDLQ(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, retryAllDLQ)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const reapStaleProcessing = `
UPDATE events
SET status = 'pending', next_retry_at = now()
WHERE status = 'processing' AND timestamp <= $1
`

// ReapStaleProcessing returns any row stuck in processing with an event
// timestamp before olderThan back to pending, immediately eligible for
// reclaim. The events table has no claimed_at column, so staleness is
// approximated via the event's own timestamp; callers should pick
// olderThan generously relative to expected handler runtime. This is an
// explicit, operator-invoked operation; the dispatch loop never calls it.
func (q *Queries) ReapStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, reapStaleProcessing, olderThan)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
