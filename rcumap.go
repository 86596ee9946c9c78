package crow

import (
	"io"
	"sync"
	"sync/atomic"
)

// Map is a read-mostly, copy-on-write map protected by the Normal RCU
// domain: readers call Load/Range inside a Begin/End pair and see a
// stable snapshot with no locking at all, while writers serialize
// against each other with an ordinary mutex, publish a new snapshot
// pointer, and retire the value a write displaced only once no reader
// can still be looking at it.
//
// This is the map.go ConcurrentMap shape (Load/Store/Delete/Range)
// reimplemented on top of the engine instead of a big fence-lock: the
// point of RCU is exactly this publish/retire pattern, so it is worth
// having a concrete data structure exercising it end to end rather than
// leaving Begin/End/Enqueue only reachable from tests.
type Map struct {
	mu  sync.Mutex
	ptr atomic.Pointer[map[any]any]
}

// NewMap returns an empty Map.
func NewMap() *Map {
	m := &Map{}
	empty := map[any]any{}
	m.ptr.Store(&empty)
	return m
}

// Load reads key from the current snapshot. th must not be used
// concurrently by another goroutine.
func (m *Map) Load(th *Thread, key any) (value any, ok bool) {
	Begin(Normal, th)
	defer End(Normal, th)
	snap := *m.ptr.Load()
	value, ok = snap[key]
	return
}

// Range calls f for every entry in the current snapshot, stopping early
// if f returns false. f sees a consistent point-in-time view even if
// concurrent writers publish new snapshots while it runs.
func (m *Map) Range(th *Thread, f func(key, value any) bool) {
	Begin(Normal, th)
	defer End(Normal, th)
	snap := *m.ptr.Load()
	for k, v := range snap {
		if !f(k, v) {
			break
		}
	}
}

// Store publishes value for key, retiring whatever value key previously
// held once no reader can still observe it.
func (m *Map) Store(key, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := *m.ptr.Load()
	next := make(map[any]any, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	displaced, hadOld := old[key]
	next[key] = value
	m.ptr.Store(&next)

	if hadOld {
		retire(displaced)
	}
}

// Delete removes key, retiring its value once no reader can still
// observe it.
func (m *Map) Delete(key any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := *m.ptr.Load()
	displaced, ok := old[key]
	if !ok {
		return
	}
	next := make(map[any]any, len(old))
	for k, v := range old {
		if k == key {
			continue
		}
		next[k] = v
	}
	m.ptr.Store(&next)
	retire(displaced)
}

// Len reports the size of the current snapshot, taken without a
// critical section since a stale-by-one count is harmless here.
func (m *Map) Len() int {
	return len(*m.ptr.Load())
}

// retire arranges for v to be released after the next Normal grace
// period closes, if v needs releasing at all. Values that implement
// io.Closer are closed; anything else is simply dropped, letting the GC
// reclaim it once the retired snapshot itself becomes unreachable —
// the Go analogue of kfree_rcu's offset-encoded free path, since this
// runtime has no manual storage to free.
func retire(v any) {
	closer, ok := v.(io.Closer)
	if !ok {
		return
	}
	Enqueue(Normal, NewCallbackNode(), FreeAt(func() { _ = closer.Close() }))
}
