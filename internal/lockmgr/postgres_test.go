package lockmgr_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/reflex-dispatch/internal/lockmgr"
	"github.com/cuemby/reflex-dispatch/internal/testutil"
)

func setupPostgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres-backed lockmgr test in short mode")
	}
	ctx := context.Background()

	container, err := testutil.NewPostgresContainer(ctx)
	if err != nil {
		t.Skipf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	pool, err := pgxpool.New(ctx, container.DSN)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestPostgres_AcquireRelease(t *testing.T) {
	pool := setupPostgresPool(t)
	m := lockmgr.NewPostgres(pool, nil)
	ctx := context.Background()

	ok, err := m.Acquire(ctx, "scope-a", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	locked, err := m.IsLocked(ctx, "scope-a")
	require.NoError(t, err)
	assert.True(t, locked)

	require.NoError(t, m.Release(ctx, "scope-a"))

	locked, err = m.IsLocked(ctx, "scope-a")
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestPostgres_AcquireTimesOutWhenHeldByAnotherSession(t *testing.T) {
	pool := setupPostgresPool(t)
	holder := lockmgr.NewPostgres(pool, nil)
	contender := lockmgr.NewPostgres(pool, nil)
	ctx := context.Background()

	ok, err := holder.Acquire(ctx, "scope-b", 0)
	require.NoError(t, err)
	require.True(t, ok)
	defer func() { _ = holder.Release(ctx, "scope-b") }()

	ok, err = contender.Acquire(ctx, "scope-b", 100*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPostgres_SameScopeSerializesAcrossManagers(t *testing.T) {
	pool := setupPostgresPool(t)
	ctx := context.Background()

	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m := lockmgr.NewPostgres(pool, nil)
			ok, err := m.Acquire(ctx, "shared-scope", 5*time.Second)
			require.NoError(t, err)
			require.True(t, ok)
			defer func() { _ = m.Release(ctx, "shared-scope") }()

			n := atomic.AddInt32(&active, 1)
			if n > atomic.LoadInt32(&maxActive) {
				atomic.StoreInt32(&maxActive, n)
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive)
}
