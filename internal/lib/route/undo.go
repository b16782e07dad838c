package route

// UndoStack keeps a bounded history of committed snapshots. It always retains
// at least the initial entry, so undoing past the first snapshot is a no-op
// rather than an error.
type UndoStack[T any] struct {
	items   []T
	maxSize int
}

// DefaultUndoDepth bounds snapshot history per route.
const DefaultUndoDepth = 20

// NewUndoStack creates a stack seeded with the initial snapshot.
func NewUndoStack[T any](initial T, maxSize int) *UndoStack[T] {
	if maxSize < 1 {
		maxSize = DefaultUndoDepth
	}
	return &UndoStack[T]{
		items:   []T{initial},
		maxSize: maxSize,
	}
}

// Push records a committed snapshot, dropping the oldest entry beyond the
// depth bound.
func (s *UndoStack[T]) Push(item T) {
	s.items = append(s.items, item)
	if len(s.items) > s.maxSize {
		s.items = s.items[1:]
	}
}

// Undo discards the top snapshot and returns the new top. At the floor it
// returns the sole remaining snapshot unchanged.
func (s *UndoStack[T]) Undo() T {
	if len(s.items) > 1 {
		s.items = s.items[:len(s.items)-1]
	}
	return s.items[len(s.items)-1]
}

// Top returns the current snapshot without modifying the stack.
func (s *UndoStack[T]) Top() T {
	return s.items[len(s.items)-1]
}

// Len returns the number of stored snapshots.
func (s *UndoStack[T]) Len() int {
	return len(s.items)
}
