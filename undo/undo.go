// Package undo keeps undo and redo stacks for any model that can describe
// its own changes. The manager is a kvo object, so "canUndo" and "canRedo"
// can be observed or bound like any other property.
package undo

import (
	"errors"
	"fmt"

	"github.com/delaneyj/kvo/kvo"
	"github.com/delaneyj/kvo/runloop"
)

const (
	EventInput = "input"
	EventUndo  = "undo"
	EventRedo  = "redo"
)

var ErrInvalidMaxUndoCount = errors.New("undo: maxUndoCount must be a positive int")

// Adapter connects a Manager to the model whose changes it records.
type Adapter interface {
	// UndoData returns what is needed to revert the changes made since the
	// last checkpoint, or nil if there is nothing to record.
	UndoData() any
	// ApplyChange reverts data (or reapplies it when isRedo is set) and
	// returns the data that takes the model back the other way.
	ApplyChange(data any, isRedo bool) any
}

var class = kvo.NewClass("UndoManager").
	Property("canUndo", kvo.Strict(false)).
	Property("canRedo", kvo.Strict(false)).
	Property("maxUndoCount", kvo.Validated(1, func(v any) error {
		if n, ok := v.(int); !ok || n < 1 {
			return fmt.Errorf("%w: %v", ErrInvalidMaxUndoCount, v)
		}
		return nil
	}))

type Manager struct {
	*kvo.Object

	adapter     Adapter
	undoStack   []any
	redoStack   []any
	inUndoState bool
}

// New creates a manager that keeps at most maxUndoCount entries per stack.
func New(loop *runloop.RunLoop, adapter Adapter, maxUndoCount int) (*Manager, error) {
	o, err := class.New(loop, map[string]any{"maxUndoCount": maxUndoCount})
	if err != nil {
		return nil, err
	}
	return &Manager{Object: o, adapter: adapter}, nil
}

func (m *Manager) CanUndo() bool { return kvo.Value[bool](m.Object, "canUndo") }
func (m *Manager) CanRedo() bool { return kvo.Value[bool](m.Object, "canRedo") }

// UndoDepth returns the number of recorded undo entries.
func (m *Manager) UndoDepth() int { return len(m.undoStack) }

// RedoDepth returns the number of recorded redo entries.
func (m *Manager) RedoDepth() int { return len(m.redoStack) }

func (m *Manager) pushState(stack *[]any, data any) {
	*stack = append(*stack, data)
	if over := len(*stack) - kvo.Value[int](m.Object, "maxUndoCount"); over > 0 {
		*stack = append((*stack)[:0], (*stack)[over:]...)
	}
	m.inUndoState = true
}

func (m *Manager) setState(canUndo, canRedo bool) {
	m.BeginChanges()
	m.MustSet("canUndo", canUndo)
	m.MustSet("canRedo", canRedo)
	m.EndChanges()
}

// DataDidChange tells the manager the model changed. Redo history is no
// longer reachable and the next Undo saves a checkpoint first.
func (m *Manager) DataDidChange() *Manager {
	m.inUndoState = false
	m.setState(true, false)
	m.Fire(EventInput, nil)
	return m
}

// SaveUndoCheckpoint records data, or the adapter's UndoData when data is
// nil, as the next undo entry. Without explicit data nothing happens unless
// the model changed since the last checkpoint.
func (m *Manager) SaveUndoCheckpoint(data any) *Manager {
	if data == nil && m.inUndoState {
		return m
	}
	if data == nil {
		data = m.adapter.UndoData()
	}
	if data != nil {
		m.pushState(&m.undoStack, data)
	}
	m.inUndoState = true
	m.redoStack = m.redoStack[:0]
	m.setState(len(m.undoStack) > 0, false)
	return m
}

// Undo reverts the most recent entry. Pending changes are checkpointed
// first so that they can be redone.
func (m *Manager) Undo() *Manager {
	if !m.CanUndo() {
		return m
	}
	if !m.inUndoState {
		m.SaveUndoCheckpoint(nil)
		return m.Undo()
	}
	data := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	if redo := m.adapter.ApplyChange(data, false); redo != nil {
		m.pushState(&m.redoStack, redo)
	}
	m.setState(len(m.undoStack) > 0, len(m.redoStack) > 0)
	m.Fire(EventUndo, nil)
	return m
}

// Redo reapplies the most recently undone entry.
func (m *Manager) Redo() *Manager {
	if !m.CanRedo() {
		return m
	}
	data := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	m.pushState(&m.undoStack, m.adapter.ApplyChange(data, true))
	m.setState(true, len(m.redoStack) > 0)
	m.Fire(EventRedo, nil)
	return m
}
