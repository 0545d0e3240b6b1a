package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/reflex-dispatch/internal/resilience"
)

func TestCircuitBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb := resilience.NewCircuitBreaker("test", resilience.DefaultCircuitBreakerConfig(), nil)

	err := cb.Execute(context.Background(), func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, resilience.StateClosed, cb.State())
}

func TestCircuitBreaker_OpensAfterThresholdFailures(t *testing.T) {
	cfg := resilience.CircuitBreakerConfig{
		MaxRequests:      1,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 3,
	}
	cb := resilience.NewCircuitBreaker("test", cfg, nil)
	testErr := errors.New("boom")

	for i := 0; i < 3; i++ {
		err := cb.Execute(context.Background(), func() error { return testErr })
		require.Error(t, err)
	}

	assert.Equal(t, resilience.StateOpen, cb.State())

	err := cb.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, resilience.ErrOpen)
}
