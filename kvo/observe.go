package kvo

import (
	"slices"

	"github.com/delaneyj/kvo/internal/fnid"
)

// Observer is called after key changed on o. old is the value before the
// change (for computed keys, the previously cached value if there was one);
// value is the value at notification time.
type Observer func(o *Object, key string, old, value any)

type observer struct {
	target  any
	pc      uintptr
	fn      Observer
	subpath string
	path    *pathObserver
	level   int
	removed bool
}

func (ob *observer) matches(target any, pc uintptr, subpath string) bool {
	return !ob.removed && ob.target == target && ob.pc == pc && ob.subpath == subpath
}

// AddObserverForKey calls fn whenever key changes. Observers of one key run
// in registration order. The pair (target, fn) identifies the observer for
// removal; fn is compared by code pointer, so a method value and its
// receiver as target is the usual shape.
func (o *Object) AddObserverForKey(key string, target any, fn Observer) *Object {
	o.addObserver(key, &observer{target: target, pc: fnid.Of(fn), fn: fn})
	return o
}

// RemoveObserverForKey removes an observer added with AddObserverForKey.
// Removing an observer that is not registered does nothing.
func (o *Object) RemoveObserverForKey(key string, target any, fn Observer) *Object {
	o.removeObserver(key, target, fnid.Of(fn), "")
	return o
}

func (o *Object) addObserver(key string, ob *observer) {
	if o.meta.lifecycle == Destroyed {
		return
	}
	o.meta.observers[key] = append(o.meta.observers[key], ob)
}

func (o *Object) removeObserver(key string, target any, pc uintptr, subpath string) *observer {
	list := o.meta.observers[key]
	for i, ob := range list {
		if ob.matches(target, pc, subpath) {
			ob.removed = true
			list = slices.Delete(list, i, i+1)
			if len(list) == 0 {
				delete(o.meta.observers, key)
			} else {
				o.meta.observers[key] = list
			}
			return ob
		}
	}
	return nil
}

// removeEntry removes exactly ob from key's list.
func (o *Object) removeEntry(key string, ob *observer) {
	list := o.meta.observers[key]
	if i := slices.Index(list, ob); i >= 0 {
		ob.removed = true
		list = slices.Delete(list, i, i+1)
		if len(list) == 0 {
			delete(o.meta.observers, key)
		} else {
			o.meta.observers[key] = list
		}
	}
}

// HasObservers reports whether anything observes key.
func (o *Object) HasObservers(key string) bool {
	return len(o.meta.observers[key]) > 0
}

// BeginChanges opens a batch. Until the matching EndChanges, observers are
// not called; each changed key is remembered once. Batches nest.
func (o *Object) BeginChanges() *Object {
	if o.meta.batchDepth == 0 {
		o.meta.changed = newChangeSet()
	}
	o.meta.batchDepth++
	return o
}

// EndChanges closes a batch. Closing the outermost batch notifies the
// observers of every key changed inside it exactly once, in the order the
// keys first changed. It panics with ErrUnbalancedChanges if no batch is
// open.
func (o *Object) EndChanges() *Object {
	if o.meta.batchDepth == 0 {
		panic(ErrUnbalancedChanges)
	}
	o.meta.batchDepth--
	if o.meta.batchDepth > 0 {
		return o
	}
	cs := o.meta.changed
	o.meta.changed = nil
	if cs == nil {
		return o
	}
	for _, key := range cs.keys {
		o.notify(key, cs.old[key])
	}
	return o
}

// Batch runs fn inside BeginChanges/EndChanges.
func (o *Object) Batch(fn func(o *Object) error) error {
	o.BeginChanges()
	defer o.EndChanges()
	return fn(o)
}

// BatchDepth returns the number of open batches.
func (o *Object) BatchDepth() int { return o.meta.batchDepth }

// PropertyDidChange announces that key changed by means the object cannot
// see, such as a volatile property's underlying source.
func (o *Object) PropertyDidChange(key string) *Object {
	o.propertyDidChange(key, o.meta.cache[key])
	return o
}

// propertyDidChange invalidates key and its dependents, then notifies their
// observers now or records them in the open batch.
func (o *Object) propertyDidChange(key string, old any) {
	o.meta.invalidate(key)
	deps := o.meta.dependents[key]
	olds := make([]any, len(deps))
	for i, d := range deps {
		olds[i] = o.meta.invalidate(d)
	}

	if cs := o.meta.changed; cs != nil {
		cs.add(key, old)
		for i, d := range deps {
			cs.add(d, olds[i])
		}
		return
	}
	o.notify(key, old)
	for i, d := range deps {
		o.notify(d, olds[i])
	}
}

func (o *Object) notify(key string, old any) {
	list := o.meta.observers[key]
	if len(list) == 0 {
		return
	}
	list = slices.Clone(list)
	var value any
	resolved := false
	for _, ob := range list {
		if ob.removed {
			continue
		}
		if ob.path != nil {
			ob.path.changed(ob.level)
			continue
		}
		if !resolved {
			value, resolved = o.Get(key), true
		}
		ob.fn(o, key, old, value)
	}
}
