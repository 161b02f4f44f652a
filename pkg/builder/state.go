// Package builder is the shape-construction state machine.
//
// Construction is a single pure reducer, [Reduce], over a closed set of
// [State] values driven by [Event] values. The reducer never touches the
// measurement store: when a shape is complete it emits a [Finalized] or
// [CalibrationPending] effect and the caller decides what to do with it.
//
// # States
//
//	Idle                   no tool collecting (pan tool, or after cancel)
//	CollectingCalibration  0 or 1 reference points
//	PendingCalibration     2 points, waiting for a declared length
//	CollectingPolyline     n path points
//	CollectingPolygon      n ring vertices
//	TemporaryPan           any of the above, suspended for panning
//
// # Finalizing
//
// A polyline finalizes on Finish or DoubleClick with at least two points.
// A polygon finalizes the same way with at least three, or automatically
// when a click lands within the close radius of its first vertex; that
// click is not added. A calibration moves to PendingCalibration on its
// second click. Finalizing with too few points is rejected and keeps the
// collected points; only Cancel discards them.
package builder

import (
	"fmt"
	"slices"

	"github.com/matzehuels/garmushka/pkg/geometry"
	"github.com/matzehuels/garmushka/pkg/shape"
)

// Tool is the active tool mode.
type Tool string

const (
	ToolPan       Tool = "pan"
	ToolCalibrate Tool = "calibrate"
	ToolPolyline  Tool = "polyline"
	ToolPolygon   Tool = "polygon"
)

// Tools lists every tool in toolbar order.
func Tools() []Tool {
	return []Tool{ToolPan, ToolCalibrate, ToolPolyline, ToolPolygon}
}

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	return slices.Contains(Tools(), t)
}

// Kind returns the shape kind t draws. The pan tool draws nothing.
func (t Tool) Kind() (shape.Kind, bool) {
	switch t {
	case ToolCalibrate:
		return shape.KindCalibration, true
	case ToolPolyline:
		return shape.KindPolyline, true
	case ToolPolygon:
		return shape.KindPolygon, true
	}
	return "", false
}

// State is a builder state. Implementations are the types in this package.
type State interface {
	// Points returns a copy of the points collected so far.
	Points() []geometry.Point
	fmt.Stringer

	state()
}

// Idle collects nothing.
type Idle struct{}

// CollectingCalibration holds zero or one reference point.
type CollectingCalibration struct{ pts []geometry.Point }

// PendingCalibration holds a complete reference segment awaiting a length.
type PendingCalibration struct {
	ID     string
	P1, P2 geometry.Point
}

// CollectingPolyline holds path points.
type CollectingPolyline struct{ pts []geometry.Point }

// CollectingPolygon holds ring vertices.
type CollectingPolygon struct{ pts []geometry.Point }

// TemporaryPan suspends Prior while the user pans.
type TemporaryPan struct{ Prior State }

func (Idle) state()                  {}
func (CollectingCalibration) state() {}
func (PendingCalibration) state()    {}
func (CollectingPolyline) state()    {}
func (CollectingPolygon) state()     {}
func (TemporaryPan) state()          {}

func (Idle) Points() []geometry.Point                    { return nil }
func (s CollectingCalibration) Points() []geometry.Point { return slices.Clone(s.pts) }
func (s PendingCalibration) Points() []geometry.Point    { return []geometry.Point{s.P1, s.P2} }
func (s CollectingPolyline) Points() []geometry.Point    { return slices.Clone(s.pts) }
func (s CollectingPolygon) Points() []geometry.Point     { return slices.Clone(s.pts) }
func (s TemporaryPan) Points() []geometry.Point          { return s.Prior.Points() }

func (Idle) String() string { return "idle" }

func (s CollectingCalibration) String() string {
	return fmt.Sprintf("collecting calibration (%d)", len(s.pts))
}

func (s PendingCalibration) String() string { return "pending calibration " + s.ID }

func (s CollectingPolyline) String() string {
	return fmt.Sprintf("collecting polyline (%d)", len(s.pts))
}

func (s CollectingPolygon) String() string {
	return fmt.Sprintf("collecting polygon (%d)", len(s.pts))
}

func (s TemporaryPan) String() string { return "temporary pan over " + s.Prior.String() }

// Start returns the initial state for tool t.
func Start(t Tool) State {
	switch t {
	case ToolCalibrate:
		return CollectingCalibration{}
	case ToolPolyline:
		return CollectingPolyline{}
	case ToolPolygon:
		return CollectingPolygon{}
	}
	return Idle{}
}

// InProgress reports whether s holds points that Cancel would discard.
func InProgress(s State) bool {
	return len(s.Points()) > 0
}

// PanAllowed reports whether a drag should pan the view.
func PanAllowed(s State, t Tool) bool {
	if _, ok := s.(TemporaryPan); ok {
		return true
	}
	return t == ToolPan
}
