package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/reflex-dispatch/internal/event"
)

func TestRegistry_RegisterIdempotent(t *testing.T) {
	r := event.NewRegistry()
	factory := func() event.Variant { return &event.TimerTick{} }

	require.NoError(t, r.Register(factory))
	require.NoError(t, r.Register(factory))
	assert.Equal(t, []string{"timer.tick"}, r.Types())
}

// otherTimer is a distinct Go type that happens to claim the same
// discriminator as event.TimerTick, to exercise the duplicate-type path.
type otherTimer struct{ Count int }

func (*otherTimer) EventType() string { return "timer.tick" }

func TestRegistry_RegisterDuplicateTypeDifferentVariant(t *testing.T) {
	r := event.NewRegistry()
	require.NoError(t, r.Register(func() event.Variant { return &event.TimerTick{} }))

	err := r.Register(func() event.Variant { return &otherTimer{} })
	var regErr *event.Error
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, event.KindDuplicateType, regErr.Kind)
}

func TestParse_RoundTrip(t *testing.T) {
	r := event.NewRegistry()
	require.NoError(t, event.RegisterBuiltins(r))

	e := event.New(&event.TimerTick{TimerName: "heartbeat", TickCount: 3}, "timer:system")
	raw, err := event.Marshal(e)
	require.NoError(t, err)

	parsed, err := r.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, e.ID, parsed.ID)
	assert.Equal(t, "timer.tick", parsed.Type)
	tick, ok := parsed.Payload.(*event.TimerTick)
	require.True(t, ok)
	assert.Equal(t, "heartbeat", tick.TimerName)
	assert.Equal(t, 3, tick.TickCount)
}

func TestParse_UnknownType(t *testing.T) {
	r := event.NewRegistry()
	_, err := r.Parse([]byte(`{"id":"e1","type":"nope","source":"s","timestamp":"2024-01-01T00:00:00Z","meta":{"trace_id":"t"},"payload":{}}`))
	var parseErr *event.Error
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, event.KindUnknownType, parseErr.Kind)
}

func TestParse_SchemaError(t *testing.T) {
	r := event.NewRegistry()
	require.NoError(t, event.RegisterBuiltins(r))
	_, err := r.Parse([]byte(`not json`))
	var parseErr *event.Error
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, event.KindSchemaError, parseErr.Kind)
}
