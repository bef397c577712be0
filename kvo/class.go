package kvo

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/delaneyj/kvo/runloop"
)

type classObserver struct {
	paths []string
	fn    Observer
}

type classListener struct {
	types     []string
	fn        Handler
	inRunLoop bool
}

// Class is a reusable set of declarations: properties, observers, event
// listeners and init hooks. Declarations are made once, up front; the first
// instantiation seals the class.
type Class struct {
	name      string
	keys      []string
	props     map[string]Property
	observers []classObserver
	listeners []classListener
	inits     []func(o *Object) error

	// dependents[k] lists every key that must be invalidated when k changes,
	// transitively, in breadth-first declaration order.
	dependents map[string][]string
	uncached   mapset.Set[string]
	dirty      bool
	sealed     bool
}

// NewClass creates an empty class.
func NewClass(name string) *Class {
	return &Class{
		name:       name,
		props:      map[string]Property{},
		dependents: map[string][]string{},
		uncached:   mapset.NewThreadUnsafeSet[string](),
	}
}

// Extend returns an unsealed copy of c to which further declarations can be
// added.
func (c *Class) Extend(name string) *Class {
	sub := NewClass(name)
	for _, k := range c.keys {
		sub.keys = append(sub.keys, k)
		sub.props[k] = c.props[k]
	}
	sub.observers = append(sub.observers, c.observers...)
	sub.listeners = append(sub.listeners, c.listeners...)
	sub.inits = append(sub.inits, c.inits...)
	sub.dirty = true
	return sub
}

// Name returns the class name.
func (c *Class) Name() string { return c.name }

// Keys returns the declared property keys in declaration order.
func (c *Class) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Lookup returns the declaration for key.
func (c *Class) Lookup(key string) (Property, bool) {
	p, ok := c.props[key]
	return p, ok
}

// Dependents returns the keys invalidated when key changes.
func (c *Class) Dependents(key string) []string {
	c.ensure()
	return append([]string(nil), c.dependents[key]...)
}

func (c *Class) mutable() {
	if c.sealed {
		panic(fmt.Errorf("%w: %s", ErrSealed, c.name))
	}
}

// Property declares key. Redeclaring a key replaces the earlier declaration
// but keeps its position.
func (c *Class) Property(key string, p Property) *Class {
	c.mutable()
	if strings.Contains(key, ".") {
		panic(fmt.Errorf("kvo: property key %q must not contain '.'", key))
	}
	if _, ok := c.props[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.props[key] = p
	c.dirty = true
	return c
}

// Observes registers fn as an observer of each key or key path on every
// instance.
func (c *Class) Observes(fn Observer, paths ...string) *Class {
	c.mutable()
	c.observers = append(c.observers, classObserver{paths: paths, fn: fn})
	return c
}

// On registers fn as a listener for each event type on every instance.
func (c *Class) On(fn Handler, types ...string) *Class {
	c.mutable()
	c.listeners = append(c.listeners, classListener{types: types, fn: fn})
	return c
}

// OnInRunLoop is On for handlers that must run inside the run loop.
func (c *Class) OnInRunLoop(fn Handler, types ...string) *Class {
	c.mutable()
	c.listeners = append(c.listeners, classListener{types: types, fn: fn, inRunLoop: true})
	return c
}

// Init registers a hook run at the end of construction, after bindings are
// connected.
func (c *Class) Init(fn func(o *Object) error) *Class {
	c.mutable()
	c.inits = append(c.inits, fn)
	return c
}

func (c *Class) ensure() {
	if c.dirty {
		c.rebuild()
		c.dirty = false
	}
}

// rebuild recomputes the dependents closure from the direct dependency
// graph, so the result does not depend on declaration order.
func (c *Class) rebuild() {
	direct := map[string][]string{}
	for _, k := range c.keys {
		p := c.props[k]
		if p.kind != KindComputed {
			continue
		}
		for _, d := range p.deps {
			direct[d] = append(direct[d], k)
		}
	}

	c.dependents = map[string][]string{}
	for dep := range direct {
		seen := mapset.NewThreadUnsafeSet(dep)
		var closure []string
		frontier := []string{dep}
		for len(frontier) > 0 {
			k := frontier[0]
			frontier = frontier[1:]
			for _, next := range direct[k] {
				if seen.Add(next) {
					closure = append(closure, next)
					frontier = append(frontier, next)
				}
			}
		}
		c.dependents[dep] = closure
	}

	c.uncached = mapset.NewThreadUnsafeSet[string]()
	for _, k := range c.keys {
		p := c.props[k]
		if p.kind != KindComputed {
			continue
		}
		if p.noCache || p.volatile {
			c.uncached.Add(k)
		}
		if p.volatile {
			c.uncached.Append(c.dependents[k]...)
		}
	}
}

func (c *Class) cacheable(key string) bool {
	return !c.uncached.Contains(key)
}

// New instantiates the class. values seed raw properties before any
// observer, binding or init hook runs; they do not notify.
func (c *Class) New(loop *runloop.RunLoop, values map[string]any) (*Object, error) {
	c.ensure()
	c.sealed = true
	o := newObject(c, loop)
	for _, k := range c.keys {
		p := c.props[k]
		if p.kind == KindRaw {
			o.values[k] = p.initial
		}
	}
	for k, v := range values {
		if p, ok := c.props[k]; ok {
			if p.kind == KindComputed {
				return nil, fmt.Errorf("kvo: %s.%s: %w", c.name, k, ErrReadOnly)
			}
			if p.validate != nil {
				if err := p.validate(v); err != nil {
					return nil, fmt.Errorf("kvo: %s.%s: %w", c.name, k, err)
				}
			}
		}
		o.values[k] = v
	}
	if err := o.init(); err != nil {
		o.Destroy()
		return nil, fmt.Errorf("kvo: init %s: %w", c.name, err)
	}
	return o, nil
}

// MustNew is New for callers that treat construction failure as fatal.
func (c *Class) MustNew(loop *runloop.RunLoop, values map[string]any) *Object {
	o, err := c.New(loop, values)
	if err != nil {
		panic(err)
	}
	return o
}
