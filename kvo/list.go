package kvo

import (
	"fmt"
	"slices"

	"github.com/delaneyj/kvo/runloop"
)

var listClass = NewClass("List").
	Property("length", Strict(0)).
	Property("isEmpty", Computed(func(o *Object) any {
		return Value[int](o, "length") == 0
	}, "length"))

// List is an ordered observable collection. Every mutation reports the
// affected index interval to range observers and updates the observable
// "length" property.
type List struct {
	*Object
	items []any
}

// NewList creates a list holding items.
func NewList(loop *runloop.RunLoop, items ...any) *List {
	l := &List{
		Object: listClass.MustNew(loop, map[string]any{"length": len(items)}),
		items:  slices.Clone(items),
	}
	return l
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.items) }

// At returns the item at i.
func (l *List) At(i int) any { return l.items[i] }

// Items returns a copy of the items.
func (l *List) Items() []any { return slices.Clone(l.items) }

// Append adds items at the end.
func (l *List) Append(items ...any) {
	l.Insert(len(l.items), items...)
}

// Insert adds items before index i. Everything from i to the new end moves,
// so that whole interval is reported.
func (l *List) Insert(i int, items ...any) {
	if i < 0 || i > len(l.items) {
		panic(fmt.Errorf("kvo: list insert index %d out of range [0, %d]", i, len(l.items)))
	}
	if len(items) == 0 {
		return
	}
	l.items = slices.Insert(l.items, i, items...)
	l.changed(i, len(l.items))
}

// Remove deletes n items starting at i and returns them.
func (l *List) Remove(i, n int) []any {
	if i < 0 || n < 0 || i+n > len(l.items) {
		panic(fmt.Errorf("kvo: list remove [%d, %d) out of range [0, %d)", i, i+n, len(l.items)))
	}
	if n == 0 {
		return nil
	}
	removed := slices.Clone(l.items[i : i+n])
	oldLen := len(l.items)
	l.items = slices.Delete(l.items, i, i+n)
	l.changed(i, oldLen)
	return removed
}

// Replace swaps the item at i and returns the previous one.
func (l *List) Replace(i int, item any) any {
	prev := l.items[i]
	if sameValue(prev, item) {
		return prev
	}
	l.items[i] = item
	l.changed(i, i+1)
	return prev
}

func (l *List) changed(lo, hi int) {
	l.MustSet("length", len(l.items))
	l.RangeDidChange(lo, hi)
}
