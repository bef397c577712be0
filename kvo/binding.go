package kvo

import (
	"fmt"
	"slices"
	"weak"

	"github.com/delaneyj/kvo/runloop"
)

// BindingState is the connection state of a Binding.
type BindingState uint8

const (
	Disconnected BindingState = iota
	Connected
	Suspended
)

func (s BindingState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connected:
		return "connected"
	case Suspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Direction is the direction of a pending sync.
type Direction uint8

const (
	SyncNone Direction = iota
	SyncForward
	SyncBackward
)

func (d Direction) String() string {
	switch d {
	case SyncForward:
		return "forward"
	case SyncBackward:
		return "backward"
	default:
		return "none"
	}
}

// BindingConfig describes the two ends of a binding. Transform converts
// source values on their way to the target; Reverse converts target values
// flowing back when TwoWay is set. Nil transforms pass values through.
type BindingConfig struct {
	Source     *Object
	SourcePath string
	Target     *Object
	TargetPath string
	Transform  Transform
	Reverse    Transform
	TwoWay     bool
}

// Binding keeps the value at TargetPath equal to the (transformed) value at
// SourcePath, and the other way round for two-way bindings. Changes are not
// copied immediately: the binding queues a sync on the bindings queue of
// its run loop, at most one per binding at a time. Endpoints are held
// weakly; the binding never keeps either object alive.
type Binding struct {
	loop       *runloop.RunLoop
	source     weak.Pointer[Object]
	sourcePath string
	target     weak.Pointer[Object]
	targetPath string
	transform  Transform
	reverse    Transform
	twoWay     bool

	owner     weak.Pointer[Object]
	state     BindingState
	pending   Direction
	writing   bool
	written   any
	destroyed bool
	syncs     uint64
}

// NewBinding creates a disconnected binding.
func NewBinding(loop *runloop.RunLoop, cfg BindingConfig) *Binding {
	return &Binding{
		loop:       loop,
		source:     weak.Make(cfg.Source),
		sourcePath: cfg.SourcePath,
		target:     weak.Make(cfg.Target),
		targetPath: cfg.TargetPath,
		transform:  cfg.Transform,
		reverse:    cfg.Reverse,
		twoWay:     cfg.TwoWay,
	}
}

// Bind creates, registers on the target and connects a binding.
func Bind(loop *runloop.RunLoop, cfg BindingConfig) (*Binding, error) {
	b := NewBinding(loop, cfg)
	if cfg.Target != nil {
		cfg.Target.RegisterBinding(b)
	}
	if err := b.Connect(); err != nil {
		b.Destroy()
		return nil, err
	}
	return b, nil
}

// State returns the connection state.
func (b *Binding) State() BindingState { return b.state }

// Pending returns the direction of the sync waiting to run, if any.
func (b *Binding) Pending() Direction { return b.pending }

// Syncs returns how many syncs have written a value.
func (b *Binding) Syncs() uint64 { return b.syncs }

func (b *Binding) String() string {
	arrow := "->"
	if b.twoWay {
		arrow = "<->"
	}
	return fmt.Sprintf("binding(%s %s %s, %s)", b.sourcePath, arrow, b.targetPath, b.state)
}

// Connect starts observing the source (and the target for two-way
// bindings) and copies the source value to the target immediately, without
// going through the run loop. Connecting a connected binding does nothing.
func (b *Binding) Connect() error {
	if b.destroyed {
		return ErrBindingDestroyed
	}
	if b.state != Disconnected {
		return nil
	}
	src, dst := b.source.Value(), b.target.Value()
	if src == nil || dst == nil {
		return ErrEndpointGone
	}
	src.AddObserverForPath(b.sourcePath, b, b.fromDidChange)
	if b.twoWay {
		dst.AddObserverForPath(b.targetPath, b, b.toDidChange)
	}
	b.state = Connected
	b.pending = SyncNone
	return b.syncDirection(SyncForward)
}

// Disconnect stops observing both ends. A pending sync is dropped.
func (b *Binding) Disconnect() {
	if b.state == Disconnected {
		return
	}
	if src := b.source.Value(); src != nil {
		src.RemoveObserverForPath(b.sourcePath, b, b.fromDidChange)
	}
	if dst := b.target.Value(); dst != nil && b.twoWay {
		dst.RemoveObserverForPath(b.targetPath, b, b.toDidChange)
	}
	b.state = Disconnected
	b.pending = SyncNone
}

// Suspend stops syncing while keeping the observers, so the binding knows
// which side changed in the meantime.
func (b *Binding) Suspend() {
	if b.state == Connected {
		b.state = Suspended
	}
}

// Resume reconnects a suspended binding and queues one sync if either side
// changed while suspended. The side that changed last wins.
func (b *Binding) Resume() {
	if b.state != Suspended {
		return
	}
	b.state = Connected
	if b.pending != SyncNone {
		b.loop.QueueFn(runloop.QueueBindings, b.sync, b)
	}
}

// Destroy disconnects the binding and removes it from its owner. It is safe
// to call more than once.
func (b *Binding) Destroy() {
	if b.destroyed {
		return
	}
	b.Disconnect()
	b.destroyed = true
	if owner := b.owner.Value(); owner != nil {
		owner.DeregisterBinding(b)
	}
	b.owner = weak.Pointer[Object]{}
}

func (b *Binding) fromDidChange(_ *Object, _ string, _, value any) {
	if b.writing && sameValue(value, b.written) {
		return
	}
	b.needsSync(SyncForward)
}

func (b *Binding) toDidChange(_ *Object, _ string, _, value any) {
	if b.writing && sameValue(value, b.written) {
		return
	}
	b.needsSync(SyncBackward)
}

// needsSync records dir as the pending direction, replacing any other, and
// queues a sync unless one is already waiting.
func (b *Binding) needsSync(dir Direction) {
	wasPending := b.pending != SyncNone
	b.pending = dir
	if b.state != Connected || wasPending {
		return
	}
	b.loop.QueueFn(runloop.QueueBindings, b.sync, b)
}

// Sync runs the pending sync now instead of waiting for the run loop.
func (b *Binding) Sync() error {
	return b.sync()
}

func (b *Binding) sync() error {
	if b.state != Connected || b.pending == SyncNone {
		return nil
	}
	dir := b.pending
	b.pending = SyncNone
	return b.syncDirection(dir)
}

func (b *Binding) syncDirection(dir Direction) error {
	from, fromPath := b.source.Value(), b.sourcePath
	to, toPath := b.target.Value(), b.targetPath
	transform := b.transform
	if dir == SyncBackward {
		from, fromPath, to, toPath = to, toPath, from, fromPath
		transform = b.reverse
	}
	if from == nil || to == nil {
		b.Destroy()
		return fmt.Errorf("%s: %w", b, ErrEndpointGone)
	}

	value := from.GetPath(fromPath)
	if transform != nil {
		v, err := transform(value)
		if err != nil {
			return fmt.Errorf("%s %s: %w", b, dir, err)
		}
		value = v
	}
	if sameValue(to.GetPath(toPath), value) {
		return nil
	}

	b.writing, b.written = true, value
	defer func() { b.writing, b.written = false, nil }()
	if _, err := to.SetPath(toPath, value); err != nil {
		return fmt.Errorf("%s %s: %w", b, dir, err)
	}
	b.syncs++
	return nil
}

// RegisterBinding records b as owned by o, so that suspending, resuming and
// destroying o reach it.
func (o *Object) RegisterBinding(b *Binding) *Object {
	if slices.Contains(o.meta.bindings, b) {
		return o
	}
	if prev := b.owner.Value(); prev != nil && prev != o {
		prev.DeregisterBinding(b)
	}
	o.meta.bindings = append(o.meta.bindings, b)
	b.owner = weak.Make(o)
	return o
}

// DeregisterBinding forgets b without touching its connection.
func (o *Object) DeregisterBinding(b *Binding) *Object {
	if i := slices.Index(o.meta.bindings, b); i >= 0 {
		o.meta.bindings = slices.Delete(o.meta.bindings, i, i+1)
	}
	return o
}

// Bindings returns the bindings registered on o.
func (o *Object) Bindings() []*Binding {
	return slices.Clone(o.meta.bindings)
}

// SuspendBindings suspends every binding registered on o.
func (o *Object) SuspendBindings() *Object {
	for _, b := range o.meta.bindings {
		b.Suspend()
	}
	return o
}

// ResumeBindings resumes every binding registered on o.
func (o *Object) ResumeBindings() *Object {
	for _, b := range o.meta.bindings {
		b.Resume()
	}
	return o
}
