package kvo_test

import (
	"fmt"
	"testing"

	"github.com/delaneyj/kvo/kvo"
	"github.com/delaneyj/kvo/runloop"
	"github.com/stretchr/testify/assert"
)

type button struct {
	log *[]string
}

func (b *button) onClick(evt *kvo.Event) { *b.log = append(*b.log, "button:"+evt.Type) }
func (b *button) onAny(evt *kvo.Event)   { *b.log = append(*b.log, "any:"+evt.Type) }

func TestFireOrder(t *testing.T) {
	o := pointClass().MustNew(newLoop(t), nil)
	var log []string
	b := &button{&log}

	o.On(kvo.AnyEvent, b, b.onAny)
	o.On("click", b, b.onClick)
	o.On("click", nil, func(evt *kvo.Event) { log = append(log, "inline:"+evt.Type) })

	evt := o.Fire("click", kvo.NewEvent("payload"))
	assert.Equal(t, []string{"button:click", "inline:click", "any:click"}, log)
	assert.Equal(t, "click", evt.Type)
	assert.Same(t, o, evt.Target)
	assert.Equal(t, "payload", evt.Detail)

	log = nil
	o.Fire("keyup", nil)
	assert.Equal(t, []string{"any:keyup"}, log)
}

func TestOff(t *testing.T) {
	var et kvo.EventTarget
	var log []string
	b := &button{&log}

	et.On("click", b, b.onClick)
	assert.True(t, et.HasListeners("click"))
	et.Off("click", b, b.onClick)
	et.Off("click", b, b.onClick)
	et.Off("never", b, b.onClick)
	assert.False(t, et.HasListeners("click"))

	evt := et.Fire("click", nil)
	assert.Empty(t, log)
	assert.Nil(t, evt.Target, "a bare EventTarget has no owner")
}

func TestStopPropagation(t *testing.T) {
	var et kvo.EventTarget
	calls := 0
	et.On("drop", nil, func(evt *kvo.Event) {
		calls++
		evt.StopPropagation()
	})
	et.On("drop", "second", func(evt *kvo.Event) { calls++ })

	evt := et.Fire("drop", nil)
	assert.True(t, evt.PropagationStopped())
	assert.Equal(t, 2, calls, "the target still runs all of its own listeners")
}

func TestOnInRunLoop(t *testing.T) {
	loop := newLoop(t)
	o := pointClass().MustNew(loop, nil)
	var log []string

	o.OnInRunLoop(loop, "save", nil, func(evt *kvo.Event) {
		log = append(log, "handler")
		loop.QueueFn(runloop.QueueRender, func() error {
			log = append(log, "render")
			return nil
		}, nil)
		log = append(log, "handler done")
	})

	o.Fire("save", nil)
	assert.Equal(t, []string{"handler", "handler done", "render"}, log)
	assert.Zero(t, loop.Pending(runloop.QueueRender))
}

func TestListenersAreKeptPerType(t *testing.T) {
	var et kvo.EventTarget
	got := map[string][]string{}
	types := make([]string, 200)
	for i := range types {
		typ := fmt.Sprintf("evt-%d", i)
		types[i] = typ
		et.On(typ, typ, func(evt *kvo.Event) {
			got[typ] = append(got[typ], evt.Type)
		})
	}

	for _, typ := range types {
		et.Fire(typ, nil)
	}
	for _, typ := range types {
		assert.Equal(t, []string{typ}, got[typ])
	}

	handler := func(*kvo.Event) {}
	et.On("evt-0", "other", handler)
	et.Off("evt-1", "other", handler)
	assert.True(t, et.HasListeners("evt-0"), "Off on one type leaves others alone")
	et.Off("evt-0", "other", handler)
	assert.True(t, et.HasListeners("evt-0"))
	assert.False(t, et.HasListeners("evt-200"))
}
