package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// channelName is the single notification channel name the dispatch core
// uses for event wake-ups: a channel named "events" carrying textual
// event ids.
const channelName = "events"

// Postgres is a Channel backed by PostgreSQL LISTEN/NOTIFY. Emit grabs a
// short-lived connection from the pool to issue NOTIFY; Wait holds a
// single dedicated connection in LISTEN mode for its entire lifetime,
// since LISTEN is session-scoped.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	mu   chan struct{} // 1-slot mutex so only one Wait dials the listener at a time
	conn *pgxpool.Conn
}

// NewPostgres returns a Postgres-backed Channel using pool.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Postgres{pool: pool, logger: logger, mu: make(chan struct{}, 1)}
	p.mu <- struct{}{}
	return p
}

// Emit implements Channel. Best-effort: a failure to acquire a
// connection or execute NOTIFY is logged and swallowed, matching the
// non-blocking, lossy contract.
func (p *Postgres) Emit(ctx context.Context, payload string) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		p.logger.Warn("notify: failed to acquire connection for NOTIFY", "error", err)
		return
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT pg_notify($1, $2)", channelName, payload); err != nil {
		p.logger.Warn("notify: NOTIFY failed", "error", err)
	}
}

// Wait implements Channel, blocking on the dedicated LISTEN connection
// (lazily established on first call) for up to timeout.
func (p *Postgres) Wait(ctx context.Context, timeout time.Duration) (string, bool) {
	<-p.mu
	defer func() { p.mu <- struct{}{} }()

	if p.conn == nil {
		conn, err := p.pool.Acquire(ctx)
		if err != nil {
			p.logger.Warn("notify: failed to acquire LISTEN connection", "error", err)
			return "", false
		}
		if _, err := conn.Exec(ctx, "LISTEN "+channelName); err != nil {
			conn.Release()
			p.logger.Warn("notify: LISTEN failed", "error", err)
			return "", false
		}
		p.conn = conn
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	n, err := p.conn.Conn().WaitForNotification(waitCtx)
	if err != nil {
		// Connection drops invalidate this session's LISTEN; force a
		// reconnect on the next Wait.
		if p.conn.Conn().IsClosed() {
			p.conn.Release()
			p.conn = nil
		}
		return "", false
	}
	return n.Payload, true
}

// Close implements Channel, releasing the dedicated LISTEN connection if
// one was established.
func (p *Postgres) Close(context.Context) error {
	<-p.mu
	defer func() { p.mu <- struct{}{} }()
	if p.conn != nil {
		p.conn.Release()
		p.conn = nil
	}
	return nil
}
