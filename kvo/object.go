// Package kvo implements key-value observing objects: stored, computed and
// bound properties, key and key-path observers, batched change notification,
// range observers for ordered collections, event targets and bindings that
// keep two property paths in sync through a run loop.
//
// Everything in this package runs on one logical thread. Objects are not
// safe for concurrent use; hand work to the goroutine running the loop with
// runloop.RunLoop.Submit instead.
package kvo

import (
	"fmt"
	"strings"

	"github.com/delaneyj/kvo/runloop"
)

// Object is an instance of a Class.
type Object struct {
	EventTarget

	class  *Class
	loop   *runloop.RunLoop
	values map[string]any
	meta   Metadata
}

func newObject(c *Class, loop *runloop.RunLoop) *Object {
	o := &Object{
		class:  c,
		loop:   loop,
		values: make(map[string]any, len(c.keys)),
		meta:   newMetadata(c.dependents),
	}
	o.EventTarget.owner = o
	return o
}

func (o *Object) init() error {
	c := o.class
	for _, k := range c.keys {
		p := c.props[k]
		if p.kind != KindBound {
			continue
		}
		b := NewBinding(o.loop, BindingConfig{
			Source:     p.source,
			SourcePath: p.sourcePath,
			Target:     o,
			TargetPath: k,
			Transform:  p.transform,
			Reverse:    p.reverse,
			TwoWay:     p.twoWay,
		})
		o.RegisterBinding(b)
		if err := b.Connect(); err != nil {
			return fmt.Errorf("bind %q: %w", k, err)
		}
	}
	for _, ob := range c.observers {
		for _, path := range ob.paths {
			o.AddObserverForPath(path, o, ob.fn)
		}
	}
	for _, l := range c.listeners {
		for _, typ := range l.types {
			if l.inRunLoop {
				o.OnInRunLoop(o.loop, typ, o, l.fn)
			} else {
				o.On(typ, o, l.fn)
			}
		}
	}
	for _, fn := range c.inits {
		if err := fn(o); err != nil {
			return err
		}
	}
	o.meta.lifecycle = Initialized
	return nil
}

// Class returns the object's class.
func (o *Object) Class() *Class { return o.class }

// Loop returns the run loop the object queues work on.
func (o *Object) Loop() *runloop.RunLoop { return o.loop }

// Lifecycle returns the object's lifecycle stage.
func (o *Object) Lifecycle() Lifecycle { return o.meta.lifecycle }

// IsDestroyed reports whether Destroy has been called.
func (o *Object) IsDestroyed() bool { return o.meta.lifecycle == Destroyed }

// Destroy disconnects the object from everything it is attached to:
// registered bindings are destroyed, path observers it holds on other objects
// are removed, and all observers and listeners are dropped. Calling it again
// is a no-op.
func (o *Object) Destroy() {
	if o.meta.lifecycle == Destroyed {
		return
	}
	for _, b := range append([]*Binding(nil), o.meta.bindings...) {
		b.Destroy()
	}
	o.meta.bindings = nil
	for _, list := range o.meta.observers {
		for _, ob := range list {
			ob.removed = true
			if ob.path != nil && ob.level == 0 {
				ob.path.detach(0)
			}
		}
	}
	o.meta.observers = map[string][]*observer{}
	o.meta.rangeObservers = nil
	o.meta.cache = map[string]any{}
	o.meta.changed = nil
	o.meta.batchDepth = 0
	o.EventTarget.reset()
	o.meta.lifecycle = Destroyed
}

// Get returns the value of key. Computed properties are served from the
// cache while fresh; undeclared keys read as stored values.
func (o *Object) Get(key string) any {
	p, ok := o.class.props[key]
	if !ok || p.kind != KindComputed {
		return o.values[key]
	}
	cacheable := o.class.cacheable(key)
	if cacheable {
		if v, ok := o.meta.cache[key]; ok {
			return v
		}
	}
	if o.meta.evaluating[key] {
		panic(fmt.Errorf("%w: %s.%s", ErrCircularDependency, o.class.name, key))
	}
	o.meta.evaluating[key] = true
	defer delete(o.meta.evaluating, key)

	v := p.get(o)
	if cacheable && o.meta.lifecycle != Destroyed {
		o.meta.cache[key] = v
	}
	return v
}

// Set writes key and returns the previous value. Stored properties ignore
// writes of an identical value. Computed properties need a setter.
// Validation and setter errors are wrapped with the class and key.
func (o *Object) Set(key string, value any) (previous any, err error) {
	if o.meta.lifecycle == Destroyed {
		return nil, fmt.Errorf("kvo: set %s.%s: %w", o.class.name, key, ErrDestroyed)
	}
	p, declared := o.class.props[key]
	if declared && p.kind == KindComputed {
		if p.set == nil {
			return nil, fmt.Errorf("kvo: set %s.%s: %w", o.class.name, key, ErrReadOnly)
		}
		previous = o.Get(key)
		if err := p.set(o, value); err != nil {
			return previous, fmt.Errorf("kvo: set %s.%s: %w", o.class.name, key, err)
		}
		o.propertyDidChange(key, previous)
		return previous, nil
	}

	if declared && p.validate != nil {
		if err := p.validate(value); err != nil {
			return o.values[key], fmt.Errorf("kvo: set %s.%s: %w", o.class.name, key, err)
		}
	}
	previous = o.values[key]
	if sameValue(previous, value) {
		return previous, nil
	}
	o.values[key] = value
	o.propertyDidChange(key, previous)
	return previous, nil
}

// MustSet is Set for values the caller knows are valid. It returns o for
// chaining.
func (o *Object) MustSet(key string, value any) *Object {
	if _, err := o.Set(key, value); err != nil {
		panic(err)
	}
	return o
}

// GetPath resolves a dotted key path. A path running through a value that
// is not an *Object resolves to nil.
func (o *Object) GetPath(path string) any {
	cur := o
	for {
		key, rest, more := strings.Cut(path, ".")
		v := cur.Get(key)
		if !more {
			return v
		}
		next, ok := v.(*Object)
		if !ok || next == nil {
			return nil
		}
		cur, path = next, rest
	}
}

// SetPath writes the last key of a dotted path on the object the rest of the
// path resolves to.
func (o *Object) SetPath(path string, value any) (any, error) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return o.Set(path, value)
	}
	target, ok := o.GetPath(path[:i]).(*Object)
	if !ok || target == nil {
		return nil, fmt.Errorf("kvo: set %s.%s: %w", o.class.name, path, ErrNotObject)
	}
	return target.Set(path[i+1:], value)
}

// QueueFn queues fn on the object's run loop with the object as the bound
// value. It panics if the object has been destroyed.
func (o *Object) QueueFn(queueName string, fn runloop.Fn) bool {
	if o.loop == nil {
		panic(fmt.Errorf("kvo: %s has no run loop", o.class.name))
	}
	return o.loop.QueueFn(queueName, fn, o)
}

// Value reads key and converts it to T, returning the zero value when the
// stored value has a different type.
func Value[T any](o *Object, key string) T {
	v, _ := o.Get(key).(T)
	return v
}

// PathValue is Value for dotted key paths.
func PathValue[T any](o *Object, path string) T {
	v, _ := o.GetPath(path).(T)
	return v
}
