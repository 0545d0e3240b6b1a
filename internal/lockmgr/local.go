package lockmgr

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Local is a single-process Manager backed by a map of mutexes. It does
// NOT provide exclusion across replicas; deploying more than one replica
// with Local causes duplicate concurrent handler execution for the same
// scope.
type Local struct {
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLocal returns a Local lock manager. It emits a startup warning log,
// since a multi-replica deployment with this backend is a correctness
// bug: locks taken in one process are invisible to every other replica.
func NewLocal(logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("lockmgr: using in-process lock backend; this does NOT provide mutual exclusion across replicas — set lock_backend=distributed for multi-replica deployments")
	return &Local{logger: logger, locks: make(map[string]*sync.Mutex)}
}

func (l *Local) scopeLock(scope string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[scope]
	if !ok {
		m = &sync.Mutex{}
		l.locks[scope] = m
	}
	return m
}

const lockPollInterval = 5 * time.Millisecond

// Acquire implements Manager. It polls TryLock rather than blocking on
// Lock in a background goroutine: a goroutine parked on Lock cannot be
// cancelled, so if the caller gave up waiting (deadline or ctx) before
// that goroutine won the mutex, the mutex would end up locked with no
// owner left to ever Release it, deadlocking the scope for good.
func (l *Local) Acquire(ctx context.Context, scope string, timeout time.Duration) (bool, error) {
	m := l.scopeLock(scope)

	if m.TryLock() {
		return true, nil
	}

	var deadlineC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadlineC = timer.C
	}

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.TryLock() {
				return true, nil
			}
		case <-deadlineC:
			return false, nil
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
}

// Release implements Manager.
func (l *Local) Release(_ context.Context, scope string) error {
	l.mu.Lock()
	m, ok := l.locks[scope]
	l.mu.Unlock()
	if !ok {
		l.logger.Warn("lockmgr: release of scope with no tracked lock", "scope", scope)
		return nil
	}
	if m.TryLock() {
		// The mutex was not held; unlocking it as-is would be a fatal error.
		m.Unlock()
		l.logger.Warn("lockmgr: release of scope that is not locked", "scope", scope)
		return nil
	}
	m.Unlock()
	return nil
}

// IsLocked implements Manager. Best-effort: attempts a non-blocking
// TryLock and immediately releases it if obtained.
func (l *Local) IsLocked(_ context.Context, scope string) (bool, error) {
	m := l.scopeLock(scope)
	if m.TryLock() {
		m.Unlock()
		return false, nil
	}
	return true, nil
}

// Close is a no-op for Local.
func (l *Local) Close(context.Context) error { return nil }
