package filter_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/reflex-dispatch/internal/event"
	"github.com/cuemby/reflex-dispatch/internal/filter"
)

func tickEvent(source string) event.Event {
	return event.New(&event.TimerTick{TimerName: "x"}, source)
}

func TestTypeFilter(t *testing.T) {
	f := filter.NewType("timer.tick", "lifecycle")
	assert.True(t, f.Matches(tickEvent("s"), nil))

	httpEvt := event.New(&event.HTTPRequest{Method: "GET", Path: "/"}, "s")
	assert.False(t, f.Matches(httpEvt, nil))
}

func TestSourceFilter(t *testing.T) {
	f := filter.MustNewSource(`^ws:vip-.*`)
	assert.True(t, f.Matches(tickEvent("ws:vip-42"), nil))
	assert.False(t, f.Matches(tickEvent("ws:guest-1"), nil))
}

func TestAndOrNot(t *testing.T) {
	typeF := filter.NewType("timer.tick")
	sourceF := filter.MustNewSource(`^ws:vip-.*`)

	and := filter.And(typeF, sourceF)
	assert.False(t, and.Matches(tickEvent("ws:guest-1"), nil))
	assert.True(t, and.Matches(tickEvent("ws:vip-1"), nil))

	or := filter.Or(typeF, sourceF)
	assert.True(t, or.Matches(tickEvent("ws:guest-1"), nil))

	not := filter.Not(typeF)
	assert.False(t, not.Matches(tickEvent("s"), nil))
}

func TestRateLimit_AdmitsThenRejectsUntilWindowClears(t *testing.T) {
	f := filter.NewRateLimit(2, 0.05)
	e := tickEvent("s")
	assert.True(t, f.Matches(e, nil))
	assert.True(t, f.Matches(e, nil))
	assert.False(t, f.Matches(e, nil))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, f.Matches(e, nil))
}

func TestDedupe_RejectsWithinWindow(t *testing.T) {
	f := filter.NewDedupe(func(e event.Event) any { return e.ID }, 300, 10000)

	ids := []string{"a", "b", "a", "c", "a"}
	var got []bool
	for _, id := range ids {
		e := event.New(&event.TimerTick{}, "s", event.WithID(id))
		got = append(got, f.Matches(e, nil))
	}
	assert.Equal(t, []bool{true, true, false, true, false}, got)
}

func TestDedupe_EvictsOldestOverMaxKeys(t *testing.T) {
	f := filter.NewDedupe(func(e event.Event) any { return e.ID }, 0, 2)

	for _, id := range []string{"a", "b", "c"} {
		e := event.New(&event.TimerTick{}, "s", event.WithID(id))
		assert.True(t, f.Matches(e, nil))
	}

	// "a" was evicted when "c" pushed the table over max_keys=2, so it is
	// admitted again.
	e := event.New(&event.TimerTick{}, "s", event.WithID("a"))
	assert.True(t, f.Matches(e, nil))
}

func TestDedupe_SafeForConcurrentUse(t *testing.T) {
	f := filter.NewDedupe(func(e event.Event) any { return e.ID }, 300, 10000)
	var wg sync.WaitGroup
	admits := make(chan bool, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e := event.New(&event.TimerTick{}, "s", event.WithID("shared"))
			admits <- f.Matches(e, nil)
		}()
	}
	wg.Wait()
	close(admits)

	admitted := 0
	for ok := range admits {
		if ok {
			admitted++
		}
	}
	require.Equal(t, 1, admitted)
}
