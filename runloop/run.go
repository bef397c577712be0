package runloop

import (
	"context"
	"fmt"
	"time"
)

// Submit hands fn to the goroutine executing Run. It is the only method that
// may be called from other goroutines. fn runs inside the run loop, so its
// queued effects are flushed before the next submission.
func (l *RunLoop) Submit(fn Fn) {
	l.ingressMu.Lock()
	l.ingress = append(l.ingress, fn)
	l.ingressMu.Unlock()
	l.signal()
}

func (l *RunLoop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *RunLoop) takeIngress() []Fn {
	l.ingressMu.Lock()
	defer l.ingressMu.Unlock()
	fns := l.ingress
	l.ingress = nil
	return fns
}

// Run drives the loop on the calling goroutine until ctx is done: it fires
// due timers, executes submitted work and otherwise sleeps until the next
// timer is due. Everything touching reactive state must then happen on this
// goroutine, through Submit or from queued work.
func (l *RunLoop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopAlreadyRunning
	}
	defer l.running.Store(false)

	sleep := time.NewTimer(time.Hour)
	defer sleep.Stop()

	for {
		for _, fn := range l.takeIngress() {
			l.invokeSubmitted(fn)
		}
		l.FireTimers()
		l.Flush()

		wait := time.Hour
		if next, ok := l.NextTimer(); ok {
			wait = max(next.Sub(l.clock.Now()), 0)
		}
		if !sleep.Stop() {
			select {
			case <-sleep.C:
			default:
			}
		}
		sleep.Reset(wait)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case <-sleep.C:
		}
	}
}

// invokeSubmitted runs fn inside the loop. Errors and panics are reported
// like those of queued work and never stop Run.
func (l *RunLoop) invokeSubmitted(fn Fn) {
	defer func() {
		if r := recover(); r != nil {
			l.report(l.timerQueue(), nil, fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()
	if err := l.Invoke(fn); err != nil {
		l.report(l.timerQueue(), nil, err)
	}
}
