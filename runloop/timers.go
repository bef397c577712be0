package runloop

import (
	"container/heap"
	"time"
)

// TimerID identifies a pending timer. The zero value never identifies a
// timer, so cancelling it is always a no-op.
type TimerID uint64

type timer struct {
	id       TimerID
	when     time.Time
	interval time.Duration
	fn       Fn
	bound    any
	index    int
}

// timerHeap is a min-heap of timers ordered by fire time, then creation order.
type timerHeap []*timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].when.Equal(h[j].when) {
		return h[i].id < h[j].id
	}
	return h[i].when.Before(h[j].when)
}
func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*timer)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// SetClock replaces the time source. Timers already registered keep their
// absolute fire times.
func (l *RunLoop) SetClock(c Clock) {
	l.clock = c
}

// Now returns the loop clock's current time.
func (l *RunLoop) Now() time.Time {
	return l.clock.Now()
}

// InvokeAfterDelay arranges for fn to be queued into the before queue once d
// has elapsed. fn never runs synchronously, even for a zero delay.
func (l *RunLoop) InvokeAfterDelay(fn Fn, d time.Duration, bound any) TimerID {
	return l.addTimer(fn, d, 0, bound)
}

// InvokePeriodically queues fn into the before queue every d until the
// returned timer is cancelled.
func (l *RunLoop) InvokePeriodically(fn Fn, d time.Duration, bound any) TimerID {
	if d <= 0 {
		panic(ErrInvalidInterval)
	}
	return l.addTimer(fn, d, d, bound)
}

func (l *RunLoop) addTimer(fn Fn, d, interval time.Duration, bound any) TimerID {
	l.nextID++
	t := &timer{
		id:       l.nextID,
		when:     l.clock.Now().Add(d),
		interval: interval,
		fn:       fn,
		bound:    bound,
	}
	heap.Push(&l.timers, t)
	l.byID[t.id] = t
	l.signal()
	return t.id
}

// Cancel removes a pending timer. Unknown, fired and cancelled ids are
// ignored.
func (l *RunLoop) Cancel(id TimerID) {
	t, ok := l.byID[id]
	if !ok {
		return
	}
	delete(l.byID, id)
	if t.index >= 0 {
		heap.Remove(&l.timers, t.index)
	}
}

// PendingTimers returns the number of registered timers.
func (l *RunLoop) PendingTimers() int {
	return len(l.byID)
}

// NextTimer returns the fire time of the earliest pending timer.
func (l *RunLoop) NextTimer() (time.Time, bool) {
	if len(l.timers) == 0 {
		return time.Time{}, false
	}
	return l.timers[0].when, true
}

// timerQueue is the queue timer callbacks enter through: before when the loop
// has one, otherwise the highest-priority queue.
func (l *RunLoop) timerQueue() string {
	if _, ok := l.byName[QueueBefore]; ok || len(l.queues) == 0 {
		return QueueBefore
	}
	return l.queues[0].name
}

// FireTimers fires every timer that is due according to the loop clock. Each
// firing queues the timer's function into the before queue and flushes, so
// every timer callback converges before the next one fires. Periodic timers
// are re-armed one interval after their previous fire time; missed intervals
// are skipped rather than replayed. It returns the number of timers fired.
func (l *RunLoop) FireTimers() int {
	now := l.clock.Now()
	fired := 0
	for len(l.timers) > 0 && !l.timers[0].when.After(now) {
		t := heap.Pop(&l.timers).(*timer)
		if t.interval > 0 {
			t.when = t.when.Add(t.interval)
			if !t.when.After(now) {
				t.when = now.Add(t.interval)
			}
			heap.Push(&l.timers, t)
		} else {
			delete(l.byID, t.id)
		}
		fired++
		l.stats.TimerFires++
		if lc, ok := t.bound.(Lifecycle); ok && lc.IsDestroyed() {
			l.Cancel(t.id)
			l.report(l.timerQueue(), t.bound, ErrDestroyedBound)
			continue
		}
		l.queueFn(l.timerQueue(), t.fn, t.bound, false)
		l.Flush()
	}
	return fired
}
