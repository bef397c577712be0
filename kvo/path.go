package kvo

import (
	"strings"

	"github.com/delaneyj/kvo/internal/fnid"
)

// pathObserver follows a dotted key path from root. It keeps an observer on
// every object along the path, moving them when an intermediate object is
// replaced, and reports a change only when the value at the end of the path
// differs from the last one it saw.
type pathObserver struct {
	root     *Object
	path     string
	segments []string
	target   any
	fn       Observer
	chain    []*Object
	entries  []*observer
	last     any
}

// AddObserverForPath calls fn whenever the value at the dotted path changes,
// including when an object in the middle of the path is swapped for another.
// fn receives the root object and the full path. A path without dots is the
// same as AddObserverForKey.
func (o *Object) AddObserverForPath(path string, target any, fn Observer) *Object {
	key, rest, more := strings.Cut(path, ".")
	if !more {
		return o.AddObserverForKey(path, target, fn)
	}
	if o.meta.lifecycle == Destroyed {
		return o
	}
	p := &pathObserver{
		root:     o,
		path:     path,
		segments: strings.Split(path, "."),
		target:   target,
		fn:       fn,
	}
	head := &observer{
		target:  target,
		pc:      fnid.Of(fn),
		fn:      fn,
		subpath: rest,
		path:    p,
	}
	p.chain = []*Object{o}
	p.entries = []*observer{head}
	o.addObserver(key, head)
	p.attach(1)
	p.last = o.GetPath(path)
	return o
}

// RemoveObserverForPath removes an observer added with AddObserverForPath.
func (o *Object) RemoveObserverForPath(path string, target any, fn Observer) *Object {
	key, rest, more := strings.Cut(path, ".")
	if !more {
		return o.RemoveObserverForKey(path, target, fn)
	}
	if ob := o.removeObserver(key, target, fnid.Of(fn), rest); ob != nil && ob.path != nil {
		ob.path.detach(0)
	}
	return o
}

// attach extends the chain from level, observing segments[level] on each
// object reached, until the path leaves *Object values.
func (p *pathObserver) attach(level int) {
	for level < len(p.segments) {
		parent := p.chain[level-1]
		next, ok := parent.Get(p.segments[level-1]).(*Object)
		if !ok || next == nil || next.IsDestroyed() {
			return
		}
		ob := &observer{target: p, path: p, level: level}
		next.addObserver(p.segments[level], ob)
		p.chain = append(p.chain, next)
		p.entries = append(p.entries, ob)
		level++
	}
}

// detach removes the observers held on chain objects above level.
func (p *pathObserver) detach(level int) {
	for i := len(p.chain) - 1; i > level; i-- {
		p.chain[i].removeEntry(p.segments[i], p.entries[i])
	}
	p.chain = p.chain[:level+1]
	p.entries = p.entries[:level+1]
}

// changed runs when segments[level] changed on chain[level].
func (p *pathObserver) changed(level int) {
	if level >= len(p.chain) || p.entries[level].removed {
		return
	}
	p.detach(level)
	p.attach(level + 1)
	value := p.root.GetPath(p.path)
	if sameValue(value, p.last) {
		return
	}
	old := p.last
	p.last = value
	p.fn(p.root, p.path, old, value)
}
