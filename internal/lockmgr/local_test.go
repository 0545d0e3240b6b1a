package lockmgr_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/reflex-dispatch/internal/lockmgr"
)

func TestLocal_AcquireRelease(t *testing.T) {
	m := lockmgr.NewLocal(nil)
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

func TestLocal_AcquireTimesOutWhenHeld(t *testing.T) {
	m := lockmgr.NewLocal(nil)
	ctx := context.Background()

	ok, err := m.Acquire(ctx, "scope-a", 0)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Acquire(ctx, "scope-a", 20*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestLocal_SameScopeSerializes proves handlers sharing a scope run one at
// a time: each goroutine counts itself as active while holding the lock,
// and the highest active count seen must be 1.
func TestLocal_SameScopeSerializes(t *testing.T) {
	m := lockmgr.NewLocal(nil)
	ctx := context.Background()

	var active int32
	var maxActive int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.Acquire(ctx, "shared-scope", 0)
			require.NoError(t, err)
			require.True(t, ok)
			defer func() { _ = m.Release(ctx, "shared-scope") }()

			n := atomic.AddInt32(&active, 1)
			if n > atomic.LoadInt32(&maxActive) {
				atomic.StoreInt32(&maxActive, n)
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&active, -1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxActive)
}

// TestLocal_DifferentScopesRunConcurrently proves distinct scopes do not
// contend with each other.
func TestLocal_DifferentScopesRunConcurrently(t *testing.T) {
	m := lockmgr.NewLocal(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	for _, scope := range []string{"scope-x", "scope-y"} {
		scope := scope
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := m.Acquire(ctx, scope, time.Second)
			require.NoError(t, err)
			require.True(t, ok)
			started <- struct{}{}
			<-release
			_ = m.Release(ctx, scope)
		}()
	}

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(time.Second):
			t.Fatal("expected both scopes to acquire concurrently")
		}
	}
	close(release)
	wg.Wait()
}
