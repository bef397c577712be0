package runloop

import "errors"

var (
	// ErrUnknownQueue is raised when work is queued into a queue the loop was
	// not constructed with.
	ErrUnknownQueue = errors.New("runloop: unknown queue")

	// ErrDestroyedBound is raised when work is queued with a bound object that
	// has already been destroyed.
	ErrDestroyedBound = errors.New("runloop: queueing for a destroyed object")

	// ErrInvalidInterval is raised by InvokePeriodically for non-positive
	// intervals.
	ErrInvalidInterval = errors.New("runloop: periodic interval must be positive")

	// ErrPanic wraps a value recovered from a panicking queued function.
	ErrPanic = errors.New("runloop: queued function panicked")

	// ErrLoopAlreadyRunning is returned when Run is called while another Run
	// is active.
	ErrLoopAlreadyRunning = errors.New("runloop: loop is already running")

	// ErrDuplicateQueue is raised when a loop is constructed with the same
	// queue name twice.
	ErrDuplicateQueue = errors.New("runloop: duplicate queue name")
)
