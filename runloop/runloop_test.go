package runloop_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/delaneyj/kvo/runloop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type view struct {
	name      string
	log       *[]string
	destroyed bool
}

func (v *view) redraw() error {
	*v.log = append(*v.log, v.name+":redraw")
	return nil
}

func (v *view) IsDestroyed() bool { return v.destroyed }

func quietLoop(t *testing.T) (*runloop.RunLoop, *[]error) {
	t.Helper()
	var errs []error
	l := runloop.New(func(queue string, bound any, err error) {
		errs = append(errs, err)
	})
	return l, &errs
}

func recorder(log *[]string, name string) runloop.Fn {
	return func() error {
		*log = append(*log, name)
		return nil
	}
}

func TestHigherPriorityQueueRunsFirst(t *testing.T) {
	l, _ := quietLoop(t)
	var log []string

	l.QueueFn(runloop.QueueRender, recorder(&log, "A"), nil)
	l.QueueFn(runloop.QueueBefore, recorder(&log, "B"), nil)
	l.Flush()

	assert.Equal(t, []string{"B", "A"}, log)
}

func TestNewWorkPreemptsLowerQueues(t *testing.T) {
	l, _ := quietLoop(t)
	var log []string

	l.QueueFn(runloop.QueueRender, func() error {
		log = append(log, "render1")
		l.QueueFn(runloop.QueueBindings, recorder(&log, "sync"), nil)
		return nil
	}, nil)
	l.QueueFn(runloop.QueueRender, recorder(&log, "render2"), nil)
	l.QueueFn(runloop.QueueAfter, recorder(&log, "after"), nil)
	l.Flush()

	assert.Equal(t, []string{"render1", "sync", "render2", "after"}, log)
	for _, q := range l.Queues() {
		assert.Zero(t, l.Pending(q), q)
	}
}

func TestDuplicateSuppression(t *testing.T) {
	l, _ := quietLoop(t)
	var log []string
	a := &view{name: "a", log: &log}
	b := &view{name: "b", log: &log}

	assert.True(t, l.QueueFn(runloop.QueueRender, a.redraw, a))
	assert.False(t, l.QueueFn(runloop.QueueRender, a.redraw, a))
	assert.True(t, l.QueueFn(runloop.QueueRender, b.redraw, b))
	l.QueueFnAllowDupes(runloop.QueueRender, a.redraw, a)
	assert.Equal(t, 3, l.Pending(runloop.QueueRender))

	l.Flush()
	assert.Equal(t, []string{"a:redraw", "b:redraw", "a:redraw"}, log)
	assert.Equal(t, uint64(1), l.Stats().Suppressed)

	// no longer pending once run
	assert.True(t, l.QueueFn(runloop.QueueRender, a.redraw, a))
}

func TestNilBoundIsNeverSuppressed(t *testing.T) {
	l, _ := quietLoop(t)
	count := 0
	inc := func() error { count++; return nil }

	l.QueueFn(runloop.QueueMiddle, inc, nil)
	l.QueueFn(runloop.QueueMiddle, inc, nil)
	l.Flush()
	assert.Equal(t, 2, count)
}

func TestReentrantFlushIsNoop(t *testing.T) {
	l, _ := quietLoop(t)
	var log []string

	l.QueueFn(runloop.QueueMiddle, func() error {
		l.QueueFn(runloop.QueueAfter, recorder(&log, "after"), nil)
		l.Flush()
		log = append(log, "middle-done")
		return nil
	}, nil)
	l.Flush()

	assert.Equal(t, []string{"middle-done", "after"}, log)
	assert.False(t, l.Flushing())
}

func TestInvokeInRunLoop(t *testing.T) {
	l, _ := quietLoop(t)
	var log []string

	handler := l.InvokeInRunLoop(func() error {
		l.QueueFn(runloop.QueueRender, recorder(&log, "render"), nil)
		log = append(log, "handler")
		return nil
	})

	t.Run("starts a flush", func(t *testing.T) {
		log = nil
		require.NoError(t, handler())
		assert.Equal(t, []string{"handler", "render"}, log)
	})

	t.Run("runs inline when nested", func(t *testing.T) {
		log = nil
		l.QueueFn(runloop.QueueBefore, func() error {
			if err := handler(); err != nil {
				return err
			}
			log = append(log, "outer")
			return nil
		}, nil)
		l.Flush()
		assert.Equal(t, []string{"handler", "outer", "render"}, log)
	})

	t.Run("drains after a panicking handler", func(t *testing.T) {
		log = nil
		panicky := l.InvokeInRunLoop(func() error {
			l.QueueFn(runloop.QueueRender, recorder(&log, "render"), nil)
			panic("boom")
		})
		assert.PanicsWithValue(t, "boom", func() { _ = panicky() })
		assert.Equal(t, []string{"render"}, log)
		assert.False(t, l.Flushing())
	})

	t.Run("returns handler error", func(t *testing.T) {
		boom := errors.New("boom")
		err := l.Invoke(func() error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, l.LastError())
	})
}

func TestErrorsAreIsolated(t *testing.T) {
	l, errs := quietLoop(t)
	var log []string
	boom := errors.New("boom")

	l.QueueFn(runloop.QueueBefore, func() error { return boom }, nil)
	l.QueueFn(runloop.QueueBefore, func() error { panic("kaboom") }, nil)
	l.QueueFn(runloop.QueueRender, recorder(&log, "render"), nil)
	l.Flush()

	assert.Equal(t, []string{"render"}, log)
	require.Len(t, *errs, 2)
	assert.ErrorIs(t, (*errs)[0], boom)
	assert.ErrorIs(t, (*errs)[1], runloop.ErrPanic)
	assert.ErrorIs(t, l.LastError(), runloop.ErrPanic)
	assert.Equal(t, uint64(2), l.Stats().Errors)

	l.ClearLastError()
	assert.NoError(t, l.LastError())
}

func TestMisuseFailsLoudly(t *testing.T) {
	l, _ := quietLoop(t)
	var log []string
	v := &view{name: "v", log: &log, destroyed: true}

	assert.Panics(t, func() {
		l.QueueFn("nope", recorder(&log, "x"), nil)
	})
	assert.Panics(t, func() {
		l.QueueFn(runloop.QueueRender, v.redraw, v)
	})
	assert.Panics(t, func() {
		runloop.NewWithQueues(nil, "a", "a")
	})
	assert.PanicsWithValue(t, runloop.ErrInvalidInterval, func() {
		l.InvokePeriodically(v.redraw, 0, nil)
	})
}

func TestCustomQueueOrder(t *testing.T) {
	l := runloop.NewWithQueues(nil, "first", "second")
	var log []string

	l.QueueFn("second", recorder(&log, "2"), nil)
	l.QueueFn("first", recorder(&log, "1"), nil)
	l.Flush()
	assert.Equal(t, []string{"1", "2"}, log)
	assert.Equal(t, []string{"first", "second"}, l.Queues())
}

func TestInvokeAfterDelay(t *testing.T) {
	l, _ := quietLoop(t)
	clock := runloop.NewFakeClock(time.Unix(0, 0))
	l.SetClock(clock)
	count := 0
	fn := func() error { count++; return nil }

	t.Run("zero delay is never synchronous", func(t *testing.T) {
		l.InvokeAfterDelay(fn, 0, nil)
		assert.Equal(t, 0, count)
		l.Flush()
		assert.Equal(t, 0, count)

		assert.Equal(t, 1, l.FireTimers())
		assert.Equal(t, 1, count)
		assert.Zero(t, l.PendingTimers())
	})

	t.Run("cancel before firing", func(t *testing.T) {
		count = 0
		id := l.InvokeAfterDelay(fn, 10*time.Millisecond, nil)
		l.Cancel(id)
		clock.Advance(20 * time.Millisecond)
		assert.Zero(t, l.FireTimers())
		assert.Zero(t, count)

		l.Cancel(id)
		l.Cancel(0)
	})

	t.Run("fires in time order", func(t *testing.T) {
		var log []string
		l.InvokeAfterDelay(recorder(&log, "late"), 30*time.Millisecond, nil)
		l.InvokeAfterDelay(recorder(&log, "early"), 10*time.Millisecond, nil)
		clock.Advance(15 * time.Millisecond)
		l.FireTimers()
		assert.Equal(t, []string{"early"}, log)

		next, ok := l.NextTimer()
		require.True(t, ok)
		assert.Equal(t, clock.Now().Add(15*time.Millisecond), next)

		clock.Advance(15 * time.Millisecond)
		l.FireTimers()
		assert.Equal(t, []string{"early", "late"}, log)
	})
}

func TestInvokePeriodically(t *testing.T) {
	newLoop := func() (*runloop.RunLoop, *runloop.FakeClock) {
		l, _ := quietLoop(t)
		clock := runloop.NewFakeClock(time.Unix(0, 0))
		l.SetClock(clock)
		return l, clock
	}
	step := func(l *runloop.RunLoop, clock *runloop.FakeClock, total time.Duration) {
		for elapsed := time.Duration(0); elapsed < total; elapsed += 10 * time.Millisecond {
			clock.Advance(10 * time.Millisecond)
			l.FireTimers()
		}
	}

	t.Run("fires repeatedly", func(t *testing.T) {
		l, clock := newLoop()
		ticks := 0
		l.InvokePeriodically(func() error { ticks++; return nil }, 50*time.Millisecond, nil)
		step(l, clock, 200*time.Millisecond)
		assert.GreaterOrEqual(t, ticks, 3)
		assert.Equal(t, 1, l.PendingTimers())
	})

	t.Run("cancel after second fire", func(t *testing.T) {
		l, clock := newLoop()
		ticks := 0
		var id runloop.TimerID
		id = l.InvokePeriodically(func() error {
			ticks++
			if ticks == 2 {
				l.Cancel(id)
			}
			return nil
		}, 50*time.Millisecond, nil)
		step(l, clock, 200*time.Millisecond)
		assert.Equal(t, 2, ticks)
		assert.Zero(t, l.PendingTimers())
	})

	t.Run("missed intervals are skipped", func(t *testing.T) {
		l, clock := newLoop()
		ticks := 0
		l.InvokePeriodically(func() error { ticks++; return nil }, 50*time.Millisecond, nil)
		clock.Advance(500 * time.Millisecond)
		l.FireTimers()
		assert.Equal(t, 1, ticks)
	})

	t.Run("destroyed bound cancels timer", func(t *testing.T) {
		var errs []error
		l := runloop.New(func(queue string, bound any, err error) { errs = append(errs, err) })
		clock := runloop.NewFakeClock(time.Unix(0, 0))
		l.SetClock(clock)
		var log []string
		v := &view{name: "v", log: &log}
		l.InvokePeriodically(v.redraw, 10*time.Millisecond, v)

		step(l, clock, 10*time.Millisecond)
		v.destroyed = true
		step(l, clock, 30*time.Millisecond)

		assert.Equal(t, []string{"v:redraw"}, log)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], runloop.ErrDestroyedBound)
		assert.Zero(t, l.PendingTimers())
	})
}

func TestRunDrivesTimersAndSubmissions(t *testing.T) {
	l, _ := quietLoop(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan []string, 1)
	var log []string
	l.Submit(func() error {
		log = append(log, "submitted")
		l.QueueFn(runloop.QueueRender, recorder(&log, "render"), nil)
		l.InvokeAfterDelay(func() error {
			log = append(log, "timer")
			done <- log
			return nil
		}, 5*time.Millisecond, nil)
		return nil
	})

	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	select {
	case got := <-done:
		assert.Equal(t, []string{"submitted", "render", "timer"}, got)
	case <-ctx.Done():
		t.Fatal("timed out waiting for timer")
	}
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
}

func TestRunSurvivesPanickingSubmission(t *testing.T) {
	l, errs := quietLoop(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	l.Submit(func() error { panic("boom") })
	l.Submit(func() error {
		close(done)
		return nil
	})

	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("later submission never ran")
	}
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)
	require.Len(t, *errs, 1)
	assert.ErrorIs(t, (*errs)[0], runloop.ErrPanic)
}
