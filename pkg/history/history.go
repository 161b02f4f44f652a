// Package history implements the bounded undo stack.
//
// A [Stack] holds snapshots in push order with a cursor on the most recent
// one. Pushing after an undo discards everything past the cursor, so there
// is a single timeline and no redo. When the stack is full the oldest
// snapshot is dropped.
package history

// DefaultCapacity is the snapshot depth used when none is configured.
const DefaultCapacity = 50

// Stack is a capacity-bounded undo stack. The zero value is not usable;
// call [New].
//
// Stack is not safe for concurrent use.
type Stack[T any] struct {
	entries  []T
	cursor   int
	capacity int
	baseline T
}

// New returns an empty stack holding at most capacity snapshots.
// A non-positive capacity selects DefaultCapacity.
func New[T any](capacity int) *Stack[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Stack[T]{cursor: -1, capacity: capacity}
}

// Push records a snapshot after the cursor, discarding any entries beyond
// it and dropping the oldest entry on overflow.
func (s *Stack[T]) Push(v T) {
	s.entries = append(s.entries[:s.cursor+1], v)
	if over := len(s.entries) - s.capacity; over > 0 {
		clear(s.entries[:over])
		s.entries = s.entries[over:]
	}
	s.cursor = len(s.entries) - 1
}

// Undo returns the snapshot at the cursor and moves the cursor back one
// step. When nothing is left it returns the baseline and false; the cursor
// stays clamped at the start.
func (s *Stack[T]) Undo() (T, bool) {
	if s.cursor < 0 {
		return s.baseline, false
	}
	v := s.entries[s.cursor]
	s.cursor--
	return v, true
}

// AtCursor returns the snapshot the next Undo would restore.
func (s *Stack[T]) AtCursor() (T, bool) {
	if s.cursor < 0 {
		var zero T
		return zero, false
	}
	return s.entries[s.cursor], true
}

// Reset empties the stack and sets the state Undo falls back to once the
// stack is exhausted.
func (s *Stack[T]) Reset(baseline T) {
	clear(s.entries)
	s.entries = s.entries[:0]
	s.cursor = -1
	s.baseline = baseline
}

// Baseline returns the underflow state.
func (s *Stack[T]) Baseline() T { return s.baseline }

// Len returns the number of stored snapshots, including any past the
// cursor that a Push would discard.
func (s *Stack[T]) Len() int { return len(s.entries) }

// Cursor returns the index of the snapshot Undo would restore, or -1.
func (s *Stack[T]) Cursor() int { return s.cursor }

// CanUndo reports whether Undo would restore a recorded snapshot.
func (s *Stack[T]) CanUndo() bool { return s.cursor >= 0 }

// Capacity returns the maximum depth.
func (s *Stack[T]) Capacity() int { return s.capacity }
