package undo_test

import (
	"testing"

	"github.com/delaneyj/kvo/kvo"
	"github.com/delaneyj/kvo/runloop"
	"github.com/delaneyj/kvo/undo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var docClass = kvo.NewClass("Doc").Property("text", kvo.Strict(""))

// doc records the text at each checkpoint and restores it on undo.
type doc struct {
	*kvo.Object
	saved string
}

func (d *doc) text() string { return kvo.Value[string](d.Object, "text") }

func (d *doc) UndoData() any {
	if d.text() == d.saved {
		return nil
	}
	prev := d.saved
	d.saved = d.text()
	return prev
}

func (d *doc) ApplyChange(data any, _ bool) any {
	prev := d.text()
	d.MustSet("text", data)
	d.saved = data.(string)
	return prev
}

func newEditor(t *testing.T, maxUndo int) (*doc, *undo.Manager) {
	t.Helper()
	loop := runloop.New(nil)
	d := &doc{Object: docClass.MustNew(loop, nil)}
	m, err := undo.New(loop, d, maxUndo)
	require.NoError(t, err)
	return d, m
}

func (d *doc) typeText(m *undo.Manager, s string) {
	d.MustSet("text", s)
	m.DataDidChange()
}

func TestUndoRedo(t *testing.T) {
	d, m := newEditor(t, 10)
	var events []string
	for _, typ := range []string{undo.EventInput, undo.EventUndo, undo.EventRedo} {
		m.On(typ, nil, func(evt *kvo.Event) { events = append(events, evt.Type) })
	}

	assert.False(t, m.CanUndo())
	d.typeText(m, "a")
	assert.True(t, m.CanUndo())
	m.SaveUndoCheckpoint(nil)
	d.typeText(m, "ab")

	m.Undo()
	assert.Equal(t, "a", d.text())
	assert.True(t, m.CanUndo())
	assert.True(t, m.CanRedo())

	m.Undo()
	assert.Equal(t, "", d.text())
	assert.False(t, m.CanUndo())
	m.Undo()
	assert.Equal(t, "", d.text(), "nothing left to undo")

	m.Redo()
	assert.Equal(t, "a", d.text())
	m.Redo()
	assert.Equal(t, "ab", d.text())
	assert.False(t, m.CanRedo())
	assert.True(t, m.CanUndo())

	assert.Equal(t, []string{"input", "input", "undo", "undo", "redo", "redo"}, events)
}

func TestNewInputDropsRedo(t *testing.T) {
	d, m := newEditor(t, 10)
	d.typeText(m, "one")
	m.Undo()
	assert.True(t, m.CanRedo())

	d.typeText(m, "two")
	assert.False(t, m.CanRedo())
	m.SaveUndoCheckpoint(nil)
	assert.Zero(t, m.RedoDepth())
	m.Undo()
	assert.Equal(t, "", d.text())
}

func TestMaxUndoCount(t *testing.T) {
	d, m := newEditor(t, 2)
	for _, s := range []string{"a", "b", "c", "d"} {
		d.typeText(m, s)
		m.SaveUndoCheckpoint(nil)
	}
	assert.Equal(t, 2, m.UndoDepth())

	m.Undo().Undo().Undo()
	assert.Equal(t, "b", d.text(), "only the last two steps are kept")
}

func TestCheckpointIsIdempotentWithoutChanges(t *testing.T) {
	d, m := newEditor(t, 5)
	d.typeText(m, "x")
	m.SaveUndoCheckpoint(nil)
	m.SaveUndoCheckpoint(nil)
	assert.Equal(t, 1, m.UndoDepth())

	m.SaveUndoCheckpoint("explicit")
	assert.Equal(t, 2, m.UndoDepth())
}

func TestCanUndoIsObservable(t *testing.T) {
	d, m := newEditor(t, 5)
	var seen []any
	m.AddObserverForKey("canUndo", nil, func(_ *kvo.Object, _ string, _, value any) {
		seen = append(seen, value)
	})
	d.typeText(m, "x")
	m.Undo()
	assert.Equal(t, []any{true, false}, seen)
}

func TestInvalidMaxUndoCount(t *testing.T) {
	_, err := undo.New(runloop.New(nil), &doc{}, 0)
	assert.ErrorIs(t, err, undo.ErrInvalidMaxUndoCount)
}
