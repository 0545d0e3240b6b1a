package obs_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/reflex-dispatch/internal/obs"
)

func TestNewRegistry_CollectsDispatchMetrics(t *testing.T) {
	_, m := obs.NewRegistry()

	m.Claims.WithLabelValues("ws.message").Inc()
	m.Acks.Inc()
	m.Nacks.WithLabelValues("dlq").Inc()
	m.DLQDepth.Set(3)
	m.InFlight.Inc()
	m.InFlight.Dec()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Claims.WithLabelValues("ws.message")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Acks))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Nacks.WithLabelValues("dlq")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.DLQDepth))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.InFlight))
}

func TestNewRegistry_RegistersWithoutError(t *testing.T) {
	reg, _ := obs.NewRegistry()
	require.NotNil(t, reg)
}
