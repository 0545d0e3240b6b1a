package lockmgr

import (
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Backend names accepted by New, matching the lock_backend config knob.
const (
	BackendLocal       = "local"
	BackendDistributed = "distributed"
)

// New constructs a Manager for the given backend name. pool is required
// (and only used) when backend is BackendDistributed.
func New(backend string, pool *pgxpool.Pool, logger *slog.Logger) (Manager, error) {
	switch backend {
	case BackendLocal, "":
		return NewLocal(logger), nil
	case BackendDistributed:
		if pool == nil {
			return nil, fmt.Errorf("lockmgr: %s backend requires a postgres pool", BackendDistributed)
		}
		return NewPostgres(pool, logger), nil
	default:
		return nil, fmt.Errorf("lockmgr: unknown backend %q, want %q or %q", backend, BackendLocal, BackendDistributed)
	}
}
