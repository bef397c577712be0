package runloop

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/kvo/internal/fnid"
)

// Fn is a unit of deferred work.
type Fn func() error

type entryKey struct {
	fn    uintptr
	bound any
}

type entry struct {
	fn    Fn
	bound any
	key   entryKey
	dedup bool
}

// queue is a FIFO of pending entries. The pending set only tracks entries
// that were queued with duplicate suppression.
type queue struct {
	name    string
	entries []entry
	pending mapset.Set[entryKey]
}

func newQueue(name string) *queue {
	return &queue{
		name:    name,
		entries: make([]entry, 0, 16),
		pending: mapset.NewThreadUnsafeSet[entryKey](),
	}
}

// push appends fn unless dedup is requested and an identical entry is still
// pending. It reports whether the entry was added.
func (q *queue) push(fn Fn, bound any, allowDupes bool) bool {
	e := entry{fn: fn, bound: bound}
	// A nil bound carries no identity, so closures from one literal would all
	// collapse into a single entry.
	if !allowDupes && bound != nil && fnid.Comparable(bound) {
		e.key = entryKey{fn: fnid.Of(fn), bound: bound}
		if !q.pending.Add(e.key) {
			return false
		}
		e.dedup = true
	}
	q.entries = append(q.entries, e)
	return true
}

func (q *queue) pop() (entry, bool) {
	if len(q.entries) == 0 {
		return entry{}, false
	}
	e := q.entries[0]
	q.entries[0] = entry{}
	if len(q.entries) == 1 {
		q.entries = q.entries[:0]
	} else {
		q.entries = q.entries[1:]
	}
	if e.dedup {
		q.pending.Remove(e.key)
	}
	return e, true
}

func (q *queue) len() int {
	return len(q.entries)
}
