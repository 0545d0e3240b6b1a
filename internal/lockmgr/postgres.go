package lockmgr

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres is a Manager backed by PostgreSQL advisory locks, safe across
// any number of replicas. Each held lock pins a dedicated connection from
// the pool for the lifetime of the hold, since advisory locks taken with
// pg_advisory_lock are session-scoped.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	mu   sync.Mutex
	held map[string]*pgxpool.Conn
}

// NewPostgres returns a Postgres-backed Manager using pool for advisory
// lock operations.
func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{pool: pool, logger: logger, held: make(map[string]*pgxpool.Conn)}
}

// scopeToLockID hashes scope to a 63-bit signed integer, matching
// Postgres's signed bigint advisory lock key space.
func scopeToLockID(scope string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(scope))
	return int64(h.Sum64() & 0x7FFFFFFFFFFFFFFF)
}

// Acquire implements Manager. A zero timeout blocks on pg_advisory_lock
// using a dedicated connection; a positive timeout polls
// pg_try_advisory_lock until it succeeds or the timeout elapses.
func (p *Postgres) Acquire(ctx context.Context, scope string, timeout time.Duration) (bool, error) {
	lockID := scopeToLockID(scope)

	if timeout <= 0 {
		conn, err := p.pool.Acquire(ctx)
		if err != nil {
			return false, err
		}
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", lockID); err != nil {
			conn.Release()
			return false, err
		}
		p.track(scope, conn)
		p.logger.Debug("lockmgr: acquired advisory lock", "scope", scope, "lock_id", lockID)
		return true, nil
	}

	deadline := time.Now().Add(timeout)
	const pollInterval = 25 * time.Millisecond
	for {
		conn, err := p.pool.Acquire(ctx)
		if err != nil {
			return false, err
		}
		var ok bool
		err = conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", lockID).Scan(&ok)
		if err != nil {
			conn.Release()
			return false, err
		}
		if ok {
			p.track(scope, conn)
			p.logger.Debug("lockmgr: acquired advisory lock", "scope", scope, "lock_id", lockID)
			return true, nil
		}
		conn.Release()

		if time.Now().After(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (p *Postgres) track(scope string, conn *pgxpool.Conn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.held[scope] = conn
}

// Release implements Manager.
func (p *Postgres) Release(ctx context.Context, scope string) error {
	p.mu.Lock()
	conn, ok := p.held[scope]
	if ok {
		delete(p.held, scope)
	}
	p.mu.Unlock()

	if !ok {
		p.logger.Warn("lockmgr: release of scope not held by this manager", "scope", scope)
		return nil
	}
	defer conn.Release()

	lockID := scopeToLockID(scope)
	_, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", lockID)
	if err != nil {
		return err
	}
	p.logger.Debug("lockmgr: released advisory lock", "scope", scope, "lock_id", lockID)
	return nil
}

// IsLocked implements Manager. It reports whether ANY session (not just
// this one) currently holds the advisory lock for scope. pg_locks shows a
// bigint advisory key split into classid (high 32 bits) and objid (low 32
// bits), with objsubid = 1.
func (p *Postgres) IsLocked(ctx context.Context, scope string) (bool, error) {
	lockID := scopeToLockID(scope)
	var locked bool
	err := p.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM pg_locks
			WHERE locktype = 'advisory'
				AND classid = ($1::bigint >> 32)::oid
				AND objid = ($1::bigint & 4294967295)::oid
				AND objsubid = 1
				AND granted = true
		)`, lockID).Scan(&locked)
	return locked, err
}

// Close releases every lock still held by this manager and returns their
// connections to the pool.
func (p *Postgres) Close(ctx context.Context) error {
	p.mu.Lock()
	held := p.held
	p.held = make(map[string]*pgxpool.Conn)
	p.mu.Unlock()

	var firstErr error
	for scope, conn := range held {
		lockID := scopeToLockID(scope)
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", lockID); err != nil && firstErr == nil {
			firstErr = err
		}
		conn.Release()
	}
	return firstErr
}
