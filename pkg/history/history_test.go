package history

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestUndoRestoresInReverseOrder(t *testing.T) {
	s := New[int](0)
	for i := range 5 {
		s.Push(i)
	}
	for want := 4; want >= 0; want-- {
		got, ok := s.Undo()
		if !ok || got != want {
			t.Fatalf("Undo() = %v, %v, want %v, true", got, ok, want)
		}
	}
	if got, ok := s.Undo(); ok || got != 0 {
		t.Errorf("Undo() past start = %v, %v, want baseline 0, false", got, ok)
	}
	if s.Cursor() != -1 {
		t.Errorf("Cursor() = %d, want -1", s.Cursor())
	}
}

func TestUnderflowReturnsBaseline(t *testing.T) {
	s := New[string](3)
	s.Reset("loaded")
	if got, ok := s.Undo(); ok || got != "loaded" {
		t.Errorf("Undo() = %q, %v, want loaded, false", got, ok)
	}
	s.Push("a")
	s.Undo()
	if got, _ := s.Undo(); got != "loaded" {
		t.Errorf("second Undo() = %q, want loaded", got)
	}
}

func TestCapacityDropsOldest(t *testing.T) {
	s := New[int](3)
	for i := 1; i <= 5; i++ {
		s.Push(i)
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	var got []int
	for s.CanUndo() {
		v, _ := s.Undo()
		got = append(got, v)
	}
	if diff := cmp.Diff([]int{5, 4, 3}, got); diff != "" {
		t.Errorf("undo order (-want +got):\n%s", diff)
	}
}

func TestDefaultCapacityIsFifty(t *testing.T) {
	s := New[int](-1)
	for i := range 60 {
		s.Push(i)
	}
	if s.Len() != DefaultCapacity || s.Capacity() != 50 {
		t.Errorf("Len() = %d, Capacity() = %d, want 50", s.Len(), s.Capacity())
	}
	if v, _ := s.AtCursor(); v != 59 {
		t.Errorf("AtCursor() = %d, want 59", v)
	}
}

func TestPushAfterUndoTruncates(t *testing.T) {
	s := New[string](10)
	s.Push("a")
	s.Push("b")
	s.Push("c")
	s.Undo() // c
	s.Undo() // b
	s.Push("x")

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	var got []string
	for s.CanUndo() {
		v, _ := s.Undo()
		got = append(got, v)
	}
	if diff := cmp.Diff([]string{"x", "a"}, got); diff != "" {
		t.Errorf("timeline (-want +got):\n%s", diff)
	}
}

func TestAtCursorEmpty(t *testing.T) {
	s := New[int](2)
	if _, ok := s.AtCursor(); ok {
		t.Error("AtCursor() on empty stack reported ok")
	}
	s.Push(7)
	s.Reset(0)
	if s.Len() != 0 || s.CanUndo() {
		t.Errorf("Reset left Len() = %d, CanUndo() = %v", s.Len(), s.CanUndo())
	}
}
