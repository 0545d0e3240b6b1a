package filter

import (
	"container/list"
	"sync"
	"time"

	"github.com/cuemby/reflex-dispatch/internal/event"
)

// RateLimit admits the first MaxEvents events in any rolling window of
// WindowSeconds, per filter instance. Each instance owns independent
// state and is safe for concurrent Matches calls.
type RateLimit struct {
	maxEvents int
	window    time.Duration

	mu         sync.Mutex
	timestamps []time.Time
}

// NewRateLimit builds a RateLimit filter.
func NewRateLimit(maxEvents int, windowSeconds float64) *RateLimit {
	return &RateLimit{
		maxEvents: maxEvents,
		window:    time.Duration(windowSeconds * float64(time.Second)),
	}
}

// Matches implements Filter. Eviction of aged timestamps happens on every
// call, before the admission decision.
func (f *RateLimit) Matches(_ event.Event, _ *Context) bool {
	now := time.Now()
	cutoff := now.Add(-f.window)

	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.timestamps[:0]
	for _, ts := range f.timestamps {
		if !ts.Before(cutoff) {
			kept = append(kept, ts)
		}
	}
	f.timestamps = kept

	if len(f.timestamps) >= f.maxEvents {
		return false
	}
	f.timestamps = append(f.timestamps, now)
	return true
}

// KeyFunc extracts the deduplication key from an event.
type KeyFunc func(event.Event) any

// Dedupe rejects a key seen within Window (or ever, if Window is zero).
// State is a bounded, insertion-ordered table; once it exceeds MaxKeys the
// least-recently-inserted key is evicted.
type Dedupe struct {
	keyFunc KeyFunc
	window  time.Duration // zero means "forever"
	maxKeys int

	mu   sync.Mutex
	seen map[any]*list.Element
	order *list.List // holds dedupeEntry values, oldest at Front
}

type dedupeEntry struct {
	key  any
	seen time.Time
}

// NewDedupe builds a Dedupe filter. windowSeconds of zero means a key is
// rejected forever once seen (subject to maxKeys eviction).
func NewDedupe(keyFunc KeyFunc, windowSeconds float64, maxKeys int) *Dedupe {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	return &Dedupe{
		keyFunc: keyFunc,
		window:  time.Duration(windowSeconds * float64(time.Second)),
		maxKeys: maxKeys,
		seen:    make(map[any]*list.Element),
		order:   list.New(),
	}
}

// Matches implements Filter. Returns true (admits) the first time a key is
// seen within the configured window, false for any repeat within it.
func (f *Dedupe) Matches(e event.Event, _ *Context) bool {
	now := time.Now()
	key := f.keyFunc(e)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.window > 0 {
		cutoff := now.Add(-f.window)
		for el := f.order.Front(); el != nil; {
			next := el.Next()
			entry := el.Value.(dedupeEntry)
			if entry.seen.Before(cutoff) {
				f.order.Remove(el)
				delete(f.seen, entry.key)
			}
			el = next
		}
	}

	if el, ok := f.seen[key]; ok {
		f.order.MoveToBack(el)
		el.Value = dedupeEntry{key: key, seen: now}
		return false
	}

	el := f.order.PushBack(dedupeEntry{key: key, seen: now})
	f.seen[key] = el

	for f.order.Len() > f.maxKeys {
		oldest := f.order.Front()
		if oldest == nil {
			break
		}
		f.order.Remove(oldest)
		delete(f.seen, oldest.Value.(dedupeEntry).key)
	}

	return true
}
