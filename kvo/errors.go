package kvo

import "errors"

var (
	// ErrReadOnly is returned when setting a computed property without a
	// setter.
	ErrReadOnly = errors.New("kvo: property is read-only")

	// ErrInvalidValue is returned when a validated property rejects a value.
	ErrInvalidValue = errors.New("kvo: invalid value")

	// ErrDestroyed is returned when mutating a destroyed object.
	ErrDestroyed = errors.New("kvo: object has been destroyed")

	// ErrCircularDependency is raised when a computed property is evaluated
	// while it is already being evaluated.
	ErrCircularDependency = errors.New("kvo: circular dependency")

	// ErrUnbalancedChanges is raised by EndChanges without a matching
	// BeginChanges.
	ErrUnbalancedChanges = errors.New("kvo: EndChanges without BeginChanges")

	// ErrSealed is raised when a class is modified after it has been
	// instantiated.
	ErrSealed = errors.New("kvo: class is sealed")

	// ErrNotObject is returned when a key path runs through a value that is
	// not an *Object.
	ErrNotObject = errors.New("kvo: path does not resolve to an object")

	// ErrBindingDestroyed is returned when connecting a destroyed binding.
	ErrBindingDestroyed = errors.New("kvo: binding has been destroyed")

	// ErrEndpointGone is returned when a binding endpoint has been collected
	// or was never set.
	ErrEndpointGone = errors.New("kvo: binding endpoint is gone")
)
