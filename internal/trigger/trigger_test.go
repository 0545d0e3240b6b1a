package trigger_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/reflex-dispatch/internal/event"
	"github.com/cuemby/reflex-dispatch/internal/filter"
	"github.com/cuemby/reflex-dispatch/internal/trigger"
)

func noopHandler() trigger.Handler {
	return trigger.HandlerFunc(func(trigger.Ctx) error { return nil })
}

func TestRegistry_MatchReturnsPriorityOrderTiesByRegistration(t *testing.T) {
	r := trigger.NewRegistry()
	low := &trigger.Trigger{Name: "low", Filter: filter.NewType("timer.tick"), Handler: noopHandler(), Priority: 1}
	first5 := &trigger.Trigger{Name: "first5", Filter: filter.NewType("timer.tick"), Handler: noopHandler(), Priority: 5}
	second5 := &trigger.Trigger{Name: "second5", Filter: filter.NewType("timer.tick"), Handler: noopHandler(), Priority: 5}

	r.Register(low)
	r.Register(first5)
	r.Register(second5)

	matched := r.Match(event.New(&event.TimerTick{}, "s"))
	require.Len(t, matched, 3)
	assert.Equal(t, "first5", matched[0].Name)
	assert.Equal(t, "second5", matched[1].Name)
	assert.Equal(t, "low", matched[2].Name)
}

func TestRegistry_UnregisterAndGet(t *testing.T) {
	r := trigger.NewRegistry()
	tr := &trigger.Trigger{Name: "t1", Filter: filter.NewType("timer.tick"), Handler: noopHandler()}
	r.Register(tr)

	got, ok := r.Get("t1")
	require.True(t, ok)
	assert.Same(t, tr, got)

	assert.True(t, r.Unregister("t1"))
	assert.False(t, r.Unregister("t1"))
	_, ok = r.Get("t1")
	assert.False(t, ok)
}

func TestTrigger_ScopeDefaultsToSource(t *testing.T) {
	tr := &trigger.Trigger{Name: "t1", Filter: filter.NewType("timer.tick"), Handler: noopHandler()}
	e := event.New(&event.TimerTick{}, "worker:7")
	assert.Equal(t, "worker:7", tr.Scope(e))
}

func TestRegistry_ClearRemovesAll(t *testing.T) {
	r := trigger.NewRegistry()
	r.Register(&trigger.Trigger{Name: "t1", Filter: filter.NewType("timer.tick"), Handler: noopHandler()})
	r.Clear()
	assert.Empty(t, r.All())
}
