package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/reflex-dispatch/internal/dispatcherr"
	"github.com/cuemby/reflex-dispatch/internal/event"
	"github.com/cuemby/reflex-dispatch/internal/notify"
	"github.com/cuemby/reflex-dispatch/internal/store"
	"github.com/cuemby/reflex-dispatch/internal/testutil"
)

func setupStore(t *testing.T) *store.Postgres {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres-backed store test in short mode")
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

	testutil.Migrate(t, pool, "../../migrations")

	cfg := store.Config{MaxAttempts: 3, RetryBaseDelaySeconds: 1, RetryMaxDelaySeconds: 60}
	return store.NewPostgres(pool, notify.NewMemory(), cfg, nil)
}

func tickEvent(source string) event.Event {
	return event.New(&event.TimerTick{TimerName: "x"}, source)
}

func TestPostgres_PublishClaimAck(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	e := tickEvent("worker:1")
	require.NoError(t, s.Publish(ctx, e))

	claims, err := s.Claim(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, claims, 1)
	assert.Equal(t, e.ID, claims[0].Event.ID)

	require.NoError(t, s.Ack(ctx, claims[0].Token))

	claims, err = s.Claim(ctx, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, claims)
}

func TestPostgres_PublishDuplicateID(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	e := tickEvent("worker:1")
	require.NoError(t, s.Publish(ctx, e))

	err := s.Publish(ctx, e)
	require.Error(t, err)
	de := dispatcherr.As(err)
	require.NotNil(t, de)
	assert.Equal(t, dispatcherr.CodeDuplicateEvent, de.Code)
}

func TestPostgres_SkipLockedAllowsConcurrentClaimsWithoutOverlap(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		require.NoError(t, s.Publish(ctx, tickEvent("worker:1")))
	}

	claimedA, err := s.Claim(ctx, nil, 10)
	require.NoError(t, err)
	claimedB, err := s.Claim(ctx, nil, 10)
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, c := range append(claimedA, claimedB...) {
		assert.False(t, seen[c.Event.ID], "event claimed twice: %s", c.Event.ID)
		seen[c.Event.ID] = true
	}
	assert.Len(t, seen, len(claimedA)+len(claimedB))
}

func TestPostgres_NackBacksOffThenDLQs(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	e := tickEvent("worker:1")
	require.NoError(t, s.Publish(ctx, e))

	for i := 0; i < 3; i++ {
		claims, err := s.Claim(ctx, nil, 10)
		require.NoError(t, err)
		require.Lenf(t, claims, 1, "attempt %d", i+1)
		require.NoError(t, s.Nack(ctx, claims[0].Token, assertErr("handler failed")))

		if i < 2 {
			// still retryable: next_retry_at is base*2^(attempts-1) away
			// (1s after attempt 1, 2s after attempt 2); wait it out.
			time.Sleep(time.Duration(1<<i)*time.Second + 100*time.Millisecond)
		}
	}

	dlq, err := s.DLQList(ctx, 10)
	require.NoError(t, err)
	require.Len(t, dlq, 1)
	assert.Equal(t, e.ID, dlq[0].Event.ID)

	ok, err := s.DLQRetry(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	claims, err := s.Claim(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, claims, 1)
}

func TestPostgres_Replay(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	start := time.Now().Add(-time.Hour)
	e := tickEvent("worker:1")
	require.NoError(t, s.Publish(ctx, e))

	events, err := s.Replay(ctx, start, time.Time{}, nil)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, e.ID, events[0].ID)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
