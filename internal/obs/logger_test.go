package obs_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/reflex-dispatch/internal/config"
	"github.com/cuemby/reflex-dispatch/internal/obs"
)

func TestNewLogger_AttachesServiceAndEnv(t *testing.T) {
	cfg := &config.Config{ServiceName: "dispatch-core", Env: "test", LogLevel: "info"}

	// NewLogger writes to os.Stdout as it is when called; point it at a
	// pipe so the test can read what the returned logger emits.
	r, w, err := os.Pipe()
	require.NoError(t, err)
	origStdout := os.Stdout
	os.Stdout = w
	logger := obs.NewLogger(cfg)
	os.Stdout = origStdout

	logger.Info("hello")
	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(out, &parsed))
	assert.Equal(t, "dispatch-core", parsed[obs.KeyService])
	assert.Equal(t, "test", parsed[obs.KeyEnv])
}

func TestFromContext_AttachesTraceID(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := obs.ContextWithTraceID(context.Background(), "trace-123")
	enriched := obs.FromContext(ctx, base)
	enriched.Info("processing")

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "trace-123", parsed[obs.KeyTraceID])
}

func TestFromContext_NoTraceIDLeavesLoggerUnchanged(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, nil))

	enriched := obs.FromContext(context.Background(), base)
	enriched.Info("processing")

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	_, ok := parsed[obs.KeyTraceID]
	assert.False(t, ok)
}
