package route

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUndoStackFloor(t *testing.T) {
	initial := buildRoute(testWaypoints[:1], testTypes[:1]).Clone()
	stack := NewUndoStack(initial, DefaultUndoDepth)

	// Undoing any number of times on a fresh stack keeps the initial snapshot.
	for i := 0; i < 5; i++ {
		top := stack.Undo()
		assert.Equal(t, initial, top)
		assert.Equal(t, 1, stack.Len())
	}
}

func TestUndoStackPushPop(t *testing.T) {
	first := buildRoute(testWaypoints[:1], testTypes[:1]).Clone()
	second := buildRoute(testWaypoints[:2], testTypes[:2]).Clone()
	third := buildRoute(testWaypoints[:3], testTypes[:3]).Clone()

	stack := NewUndoStack(first, DefaultUndoDepth)
	stack.Push(second)
	stack.Push(third)

	require.Equal(t, 3, stack.Len())
	assert.Equal(t, third, stack.Top())

	assert.Equal(t, second, stack.Undo())
	assert.Equal(t, first, stack.Undo())
	assert.Equal(t, first, stack.Undo(), "Undo at the floor is a no-op")
}

func TestUndoStackBounded(t *testing.T) {
	stack := NewUndoStack(0, 3)
	for i := 1; i <= 10; i++ {
		stack.Push(i)
	}

	assert.Equal(t, 3, stack.Len())
	assert.Equal(t, 10, stack.Top())
	assert.Equal(t, 9, stack.Undo())
	assert.Equal(t, 8, stack.Undo())
	assert.Equal(t, 8, stack.Undo())
}
