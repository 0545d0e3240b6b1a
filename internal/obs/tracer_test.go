package obs_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/reflex-dispatch/internal/config"
	"github.com/cuemby/reflex-dispatch/internal/obs"
)

func TestInitTracer_DisabledReturnsNoopProvider(t *testing.T) {
	cfg := &config.Config{OTELEnabled: false}

	tp, err := obs.InitTracer(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, tp)

	tracer := obs.Tracer(tp)
	_, span := tracer.Start(context.Background(), obs.SpanProcessEvent)
	defer span.End()
	require.False(t, span.SpanContext().IsValid())
}
