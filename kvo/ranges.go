package kvo

import (
	"slices"

	"github.com/delaneyj/kvo/internal/fnid"
)

// Range is a half-open index interval [Start, End). A negative End leaves
// the range open towards the end of the collection.
type Range struct {
	Start, End int
}

// Intersects reports whether r overlaps [lo, hi).
func (r Range) Intersects(lo, hi int) bool {
	if hi <= lo || (r.End >= 0 && r.End <= r.Start) {
		return false
	}
	if r.End >= 0 && lo >= r.End {
		return false
	}
	return r.Start < hi
}

// RangeObserver is called with the changed interval [lo, hi).
type RangeObserver func(o *Object, lo, hi int)

type rangeObserver struct {
	r       Range
	target  any
	pc      uintptr
	fn      RangeObserver
	removed bool
}

// AddObserverForRange calls fn whenever a change reported through
// RangeDidChange overlaps r. Typical use is a virtualized list that only
// re-renders the visible window.
func (o *Object) AddObserverForRange(r Range, target any, fn RangeObserver) *Object {
	if o.meta.lifecycle == Destroyed {
		return o
	}
	o.meta.rangeObservers = append(o.meta.rangeObservers, &rangeObserver{
		r:      r,
		target: target,
		pc:     fnid.Of(fn),
		fn:     fn,
	})
	return o
}

// RemoveObserverForRange removes an observer added with the same range,
// target and function. Unknown observers are ignored.
func (o *Object) RemoveObserverForRange(r Range, target any, fn RangeObserver) *Object {
	pc := fnid.Of(fn)
	i := slices.IndexFunc(o.meta.rangeObservers, func(ro *rangeObserver) bool {
		return ro.r == r && ro.target == target && ro.pc == pc
	})
	if i >= 0 {
		o.meta.rangeObservers[i].removed = true
		o.meta.rangeObservers = slices.Delete(o.meta.rangeObservers, i, i+1)
	}
	return o
}

// RangeDidChange notifies range observers whose range overlaps [lo, hi).
func (o *Object) RangeDidChange(lo, hi int) *Object {
	for _, ro := range slices.Clone(o.meta.rangeObservers) {
		if !ro.removed && ro.r.Intersects(lo, hi) {
			ro.fn(o, lo, hi)
		}
	}
	return o
}
