package kvo

import (
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/delaneyj/kvo/internal/fnid"
	"github.com/delaneyj/kvo/runloop"
)

// AnyEvent is the wildcard type; its listeners see every fired event after
// the type's own listeners.
const AnyEvent = "*"

// Event is passed to listeners. Target is the object the event was fired
// on unless the caller set it.
type Event struct {
	Type   string
	Target any
	Detail any

	stopped bool
}

// NewEvent creates an event carrying detail.
func NewEvent(detail any) *Event {
	return &Event{Detail: detail}
}

// StopPropagation asks whatever is routing the event not to hand it to
// further targets. The event target itself always finishes its own
// listeners.
func (e *Event) StopPropagation() { e.stopped = true }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.stopped }

// Handler receives fired events.
type Handler func(evt *Event)

type listener struct {
	target any
	pc     uintptr
	fn     Handler
}

type listenerList struct {
	typ  string
	list []*listener
}

// EventTarget dispatches typed events to its own listeners. It does not
// bubble. The zero value is ready to use.
type EventTarget struct {
	owner any
	// listeners buckets lists by the xxhash of their type; types sharing a
	// hash share a bucket and are told apart by name.
	listeners map[uint64][]*listenerList
}

func eventKey(typ string) uint64 {
	return xxhash.Sum64String(typ)
}

func (t *EventTarget) lookup(typ string) *listenerList {
	for _, ll := range t.listeners[eventKey(typ)] {
		if ll.typ == typ {
			return ll
		}
	}
	return nil
}

// On registers fn for events of typ. (target, fn) identifies the listener
// for Off.
func (t *EventTarget) On(typ string, target any, fn Handler) *EventTarget {
	t.on(typ, &listener{target: target, pc: fnid.Of(fn), fn: fn})
	return t
}

// OnInRunLoop registers fn so that each call runs inside loop: if no flush
// is active one is started, and everything the handler queued is drained
// before Fire returns.
func (t *EventTarget) OnInRunLoop(loop *runloop.RunLoop, typ string, target any, fn Handler) *EventTarget {
	wrapped := func(evt *Event) {
		_ = loop.Invoke(func() error {
			fn(evt)
			return nil
		})
	}
	t.on(typ, &listener{target: target, pc: fnid.Of(fn), fn: wrapped})
	return t
}

func (t *EventTarget) on(typ string, l *listener) {
	if t.listeners == nil {
		t.listeners = map[uint64][]*listenerList{}
	}
	ll := t.lookup(typ)
	if ll == nil {
		ll = &listenerList{typ: typ}
		k := eventKey(typ)
		t.listeners[k] = append(t.listeners[k], ll)
	}
	ll.list = append(ll.list, l)
}

// Off removes a listener registered with On or OnInRunLoop. Unknown
// listeners are ignored.
func (t *EventTarget) Off(typ string, target any, fn Handler) *EventTarget {
	ll := t.lookup(typ)
	if ll == nil {
		return t
	}
	pc := fnid.Of(fn)
	i := slices.IndexFunc(ll.list, func(l *listener) bool {
		return l.target == target && l.pc == pc
	})
	if i >= 0 {
		ll.list = slices.Delete(ll.list, i, i+1)
	}
	return t
}

// HasListeners reports whether any listener is registered for typ.
func (t *EventTarget) HasListeners(typ string) bool {
	ll := t.lookup(typ)
	return ll != nil && len(ll.list) > 0
}

// Fire dispatches evt to the listeners of typ, then to AnyEvent listeners,
// each in registration order. A nil evt is replaced by an empty event. The
// event is returned so callers can inspect PropagationStopped.
func (t *EventTarget) Fire(typ string, evt *Event) *Event {
	if evt == nil {
		evt = &Event{}
	}
	evt.Type = typ
	if evt.Target == nil {
		evt.Target = t.owner
	}
	t.dispatch(typ, evt)
	if typ != AnyEvent {
		t.dispatch(AnyEvent, evt)
	}
	return evt
}

func (t *EventTarget) dispatch(typ string, evt *Event) {
	ll := t.lookup(typ)
	if ll == nil {
		return
	}
	for _, l := range slices.Clone(ll.list) {
		l.fn(evt)
	}
}

func (t *EventTarget) reset() {
	t.listeners = nil
}
