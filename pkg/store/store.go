// Package store holds the ordered set of finalized shapes together with the
// calibration state that governs all of them.
//
// The store is the authority for shapes; [Row] and [Summary] values are
// projections recomputed on demand and never stored. Mutations report
// whether they changed anything so callers can skip recording an undo
// snapshot for no-ops.
//
// Store is not safe for concurrent use; the engine serializes access.
package store

import (
	"slices"

	"github.com/matzehuels/garmushka/pkg/calibration"
	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/shape"
)

// Direction moves a shape one slot in the list.
type Direction int

const (
	Up   Direction = -1
	Down Direction = 1
)

// ParseDirection resolves "up" or "down".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidInput, "unknown direction %q (want up or down)", s)
}

// Snapshot is an immutable copy of the undoable state.
type Snapshot struct {
	Shapes        []shape.Shape
	PixelsPerUnit float64
}

// Store is the measurement collection.
type Store struct {
	shapes   []shape.Shape
	cal      calibration.State
	selected string
}

// New returns an empty, uncalibrated store.
func New() *Store {
	return &Store{}
}

// Len returns the number of shapes.
func (s *Store) Len() int { return len(s.shapes) }

// Shapes returns the shapes in display order.
func (s *Store) Shapes() []shape.Shape { return slices.Clone(s.shapes) }

// Calibration returns the current scale.
func (s *Store) Calibration() calibration.State { return s.cal }

// SetCalibration replaces the scale. Existing shapes keep their pixel
// geometry and are re-measured with the new scale.
func (s *Store) SetCalibration(c calibration.State) { s.cal = c }

// Selected returns the selected shape id, or "".
func (s *Store) Selected() string { return s.selected }

func (s *Store) index(id string) int {
	return slices.IndexFunc(s.shapes, func(sh shape.Shape) bool { return sh.Meta().ID == id })
}

// Get looks up a shape by id.
func (s *Store) Get(id string) (shape.Shape, bool) {
	if i := s.index(id); i >= 0 {
		return s.shapes[i], true
	}
	return nil, false
}

// Count returns how many shapes of kind k exist.
func (s *Store) Count(k shape.Kind) int {
	n := 0
	for _, sh := range s.shapes {
		if sh.Kind() == k {
			n++
		}
	}
	return n
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "no shape with id %q", id)
}

// Append adds sh at the end. Ids must be unique.
func (s *Store) Append(sh shape.Shape) error {
	if sh == nil {
		return errors.New(errors.ErrCodeInvalidInput, "nil shape")
	}
	if s.index(sh.Meta().ID) >= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "duplicate shape id %q", sh.Meta().ID)
	}
	s.shapes = append(s.shapes, sh)
	return nil
}

func (s *Store) update(id string, fn func(shape.Shape) (shape.Shape, error)) (bool, error) {
	i := s.index(id)
	if i < 0 {
		return false, notFound(id)
	}
	next, err := fn(s.shapes[i])
	if err != nil {
		return false, err
	}
	if next.Meta() == s.shapes[i].Meta() {
		return false, nil
	}
	s.shapes = slices.Clone(s.shapes)
	s.shapes[i] = next
	return true, nil
}

// Rename sets a shape's name.
func (s *Store) Rename(id, name string) (bool, error) {
	return s.update(id, func(sh shape.Shape) (shape.Shape, error) { return shape.WithName(sh, name) })
}

// SetNotes sets a shape's notes.
func (s *Store) SetNotes(id, notes string) (bool, error) {
	return s.update(id, func(sh shape.Shape) (shape.Shape, error) { return shape.WithNotes(sh, notes) })
}

// SetColor sets a shape's display color.
func (s *Store) SetColor(id, color string) (bool, error) {
	return s.update(id, func(sh shape.Shape) (shape.Shape, error) { return shape.WithColor(sh, color) })
}

// Reorder swaps a shape with its neighbour. Moving past either end is a
// no-op.
func (s *Store) Reorder(id string, dir Direction) (bool, error) {
	if dir != Up && dir != Down {
		return false, errors.New(errors.ErrCodeInvalidInput, "invalid direction %d", dir)
	}
	i := s.index(id)
	if i < 0 {
		return false, notFound(id)
	}
	j := i + int(dir)
	if j < 0 || j >= len(s.shapes) {
		return false, nil
	}
	s.shapes = slices.Clone(s.shapes)
	s.shapes[i], s.shapes[j] = s.shapes[j], s.shapes[i]
	return true, nil
}

// Remove deletes a shape, clearing the selection if it was selected.
func (s *Store) Remove(id string) (bool, error) {
	i := s.index(id)
	if i < 0 {
		return false, notFound(id)
	}
	s.shapes = slices.Delete(slices.Clone(s.shapes), i, i+1)
	if s.selected == id {
		s.selected = ""
	}
	return true, nil
}

// Select marks a shape as selected; an empty id clears the selection.
func (s *Store) Select(id string) error {
	if id != "" && s.index(id) < 0 {
		return notFound(id)
	}
	s.selected = id
	return nil
}

// Clear removes every shape and resets the calibration.
func (s *Store) Clear() {
	s.shapes = nil
	s.cal = calibration.State{}
	s.selected = ""
}

// Snapshot captures shapes and scale. The store copies its slice before
// every mutation, so the snapshot never observes later changes.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{Shapes: slices.Clip(s.shapes), PixelsPerUnit: s.cal.PixelsPerUnit}
}

// Restore replaces shapes and scale with snap. The selection survives only
// if the selected shape is still present.
func (s *Store) Restore(snap Snapshot) {
	s.shapes = slices.Clone(snap.Shapes)
	s.cal = calibration.State{PixelsPerUnit: snap.PixelsPerUnit}
	if s.selected != "" && s.index(s.selected) < 0 {
		s.selected = ""
	}
}
