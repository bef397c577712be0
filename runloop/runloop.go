// Package runloop serializes deferred work through a fixed set of named,
// priority-ordered FIFO queues.
//
// All mutations of reactive state happen on one logical thread. Work that
// should not run inline (binding syncs, renders, timer callbacks) is queued
// with QueueFn and executed by Flush, which always takes the next entry from
// the highest-priority non-empty queue. Because the scan restarts after every
// single entry, work queued into an earlier queue preempts whatever remains in
// later ones, and a single Flush drains everything to a fixed point.
package runloop

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Default queue names, highest priority first.
const (
	QueueBefore   = "before"
	QueueBindings = "bindings"
	QueueMiddle   = "middle"
	QueueRender   = "render"
	QueueAfter    = "after"
)

// DefaultQueues is the queue order used by New.
var DefaultQueues = []string{QueueBefore, QueueBindings, QueueMiddle, QueueRender, QueueAfter}

// OnErrorFunc receives errors returned by, or recovered from, queued work.
type OnErrorFunc func(queue string, bound any, err error)

// Lifecycle is implemented by bound objects that can be destroyed. Queueing
// work for a destroyed object is a programming error.
type Lifecycle interface {
	IsDestroyed() bool
}

// Stats counts what the loop has done since construction.
type Stats struct {
	Flushes    uint64
	Executed   uint64
	Suppressed uint64
	Errors     uint64
	TimerFires uint64
}

// RunLoop owns the queues and timers. It is not safe for concurrent use; the
// only exception is Submit.
type RunLoop struct {
	queues  []*queue
	byName  map[string]*queue
	depth   int
	lastErr error
	onError OnErrorFunc
	stats   Stats

	clock  Clock
	timers timerHeap
	byID   map[TimerID]*timer
	nextID TimerID

	running   atomic.Bool
	ingressMu sync.Mutex
	ingress   []Fn
	wake      chan struct{}
}

// New creates a loop with DefaultQueues. A nil onError logs through slog.
func New(onError OnErrorFunc) *RunLoop {
	return NewWithQueues(onError, DefaultQueues...)
}

// NewWithQueues creates a loop whose queues run in the given order. The order
// is fixed for the lifetime of the loop.
func NewWithQueues(onError OnErrorFunc, names ...string) *RunLoop {
	if onError == nil {
		onError = logError
	}
	l := &RunLoop{
		queues:  make([]*queue, 0, len(names)),
		byName:  make(map[string]*queue, len(names)),
		onError: onError,
		clock:   RealClock{},
		byID:    map[TimerID]*timer{},
		wake:    make(chan struct{}, 1),
	}
	for _, name := range names {
		if _, ok := l.byName[name]; ok {
			panic(fmt.Errorf("%w: %q", ErrDuplicateQueue, name))
		}
		q := newQueue(name)
		l.queues = append(l.queues, q)
		l.byName[name] = q
	}
	return l
}

func logError(queue string, bound any, err error) {
	slog.Error("queued function failed",
		"queue", queue,
		"bound", fmt.Sprintf("%T", bound),
		"error", err,
	)
}

// Queues returns the queue names in priority order.
func (l *RunLoop) Queues() []string {
	names := make([]string, len(l.queues))
	for i, q := range l.queues {
		names[i] = q.name
	}
	return names
}

// QueueFn appends fn to the named queue. If the same function is already
// pending in that queue for the same bound object the call is a no-op.
// Function identity is the code pointer, so method values on one receiver
// and closures from one literal count as the same function. A nil bound
// disables suppression.
func (l *RunLoop) QueueFn(queueName string, fn Fn, bound any) bool {
	return l.queueFn(queueName, fn, bound, false)
}

// QueueFnAllowDupes appends fn without duplicate suppression.
func (l *RunLoop) QueueFnAllowDupes(queueName string, fn Fn, bound any) {
	l.queueFn(queueName, fn, bound, true)
}

func (l *RunLoop) queueFn(queueName string, fn Fn, bound any, allowDupes bool) bool {
	q, ok := l.byName[queueName]
	if !ok {
		panic(fmt.Errorf("%w: %q", ErrUnknownQueue, queueName))
	}
	if lc, ok := bound.(Lifecycle); ok && lc.IsDestroyed() {
		panic(fmt.Errorf("%w: %T", ErrDestroyedBound, bound))
	}
	if !q.push(fn, bound, allowDupes) {
		l.stats.Suppressed++
		return false
	}
	return true
}

// Pending returns the number of entries waiting in the named queue.
func (l *RunLoop) Pending(queueName string) int {
	if q, ok := l.byName[queueName]; ok {
		return q.len()
	}
	return 0
}

// Flushing reports whether a flush is in progress.
func (l *RunLoop) Flushing() bool {
	return l.depth > 0
}

// Flush runs queued work until every queue is empty. Called from inside
// queued work it returns immediately; the running flush picks up whatever was
// queued.
func (l *RunLoop) Flush() {
	if l.depth > 0 {
		return
	}
	l.depth++
	defer func() { l.depth-- }()
	l.drain()
}

func (l *RunLoop) drain() {
	l.stats.Flushes++
	for {
		q := l.nextQueue()
		if q == nil {
			return
		}
		e, _ := q.pop()
		l.safeExecute(q.name, e)
	}
}

func (l *RunLoop) nextQueue() *queue {
	for _, q := range l.queues {
		if q.len() > 0 {
			return q
		}
	}
	return nil
}

func (l *RunLoop) safeExecute(queueName string, e entry) {
	defer func() {
		if r := recover(); r != nil {
			l.report(queueName, e.bound, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()
	l.stats.Executed++
	if err := e.fn(); err != nil {
		l.report(queueName, e.bound, err)
	}
}

func (l *RunLoop) report(queueName string, bound any, err error) {
	l.lastErr = err
	l.stats.Errors++
	l.onError(queueName, bound, err)
}

// LastError returns the most recent error from queued work.
func (l *RunLoop) LastError() error {
	return l.lastErr
}

// ClearLastError resets LastError to nil.
func (l *RunLoop) ClearLastError() {
	l.lastErr = nil
}

// Stats returns a snapshot of the loop counters.
func (l *RunLoop) Stats() Stats {
	return l.stats
}

// InvokeInRunLoop wraps handler so that calling it outside a flush starts
// one: the handler runs, then every queue is drained before the wrapper
// returns, even if the handler panics. Called while a flush is active, the
// handler runs inline and its queued effects are left to the outer flush.
func (l *RunLoop) InvokeInRunLoop(handler Fn) Fn {
	return func() error {
		if l.depth > 0 {
			return handler()
		}
		l.depth++
		defer func() {
			l.drain()
			l.depth--
		}()
		return handler()
	}
}

// Invoke runs handler inside the run loop. See InvokeInRunLoop.
func (l *RunLoop) Invoke(handler Fn) error {
	return l.InvokeInRunLoop(handler)()
}
