package builder

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/geometry"
	"github.com/matzehuels/garmushka/pkg/shape"
)

// Event is an input to [Reduce].
type Event interface{ event() }

// SelectTool switches tools. Points collected for another tool are dropped.
type SelectTool struct{ Tool Tool }

// Click adds a model-space point for Tool. CloseRadius is the polygon
// auto-close distance in model units (screen threshold divided by scale).
type Click struct {
	Point       geometry.Point
	Tool        Tool
	CloseRadius float64
}

// DoubleClick finalizes a polyline or polygon. The second click of a
// double-click usually adds a point on top of the previous one; a trailing
// point within Radius of its predecessor is dropped first.
type DoubleClick struct{ Radius float64 }

// Finish finalizes the shape being collected.
type Finish struct{}

// Cancel discards collected points and returns to Idle.
type Cancel struct{}

// EnterPan suspends the current state for a temporary pan.
type EnterPan struct{}

// ExitPan resumes the state suspended by EnterPan.
type ExitPan struct{}

// CalibrationCommitted acknowledges that the pending segment was accepted.
type CalibrationCommitted struct{ ID string }

func (SelectTool) event()           {}
func (Click) event()                {}
func (DoubleClick) event()          {}
func (Finish) event()               {}
func (Cancel) event()               {}
func (EnterPan) event()             {}
func (ExitPan) event()              {}
func (CalibrationCommitted) event() {}

// Effect is an output of [Reduce]. A nil Effect means nothing to do.
type Effect interface{ effect() }

// Finalized carries the points of a completed polyline or polygon.
type Finalized struct {
	Kind   shape.Kind
	Points []geometry.Point
}

// CalibrationPending announces a complete reference segment.
type CalibrationPending struct {
	ID     string
	P1, P2 geometry.Point
}

// Rejected reports an event that could not be applied. Collected points
// are kept.
type Rejected struct{ Err *errors.Error }

func (Finalized) effect()          {}
func (CalibrationPending) effect() {}
func (Rejected) effect()           {}

func reject(code errors.Code, format string, args ...any) Effect {
	return Rejected{Err: errors.New(code, format, args...)}
}

// Reduce applies ev to s and returns the next state and an optional effect.
// It never mutates s.
func Reduce(s State, ev Event) (State, Effect) {
	switch ev := ev.(type) {
	case SelectTool:
		return selectTool(s, ev.Tool)
	case Cancel:
		return Idle{}, nil
	case EnterPan:
		if _, ok := s.(TemporaryPan); ok {
			return s, nil
		}
		return TemporaryPan{Prior: s}, nil
	case ExitPan:
		if p, ok := s.(TemporaryPan); ok {
			return p.Prior, nil
		}
		return s, nil
	}

	if _, ok := s.(TemporaryPan); ok {
		return s, reject(errors.ErrCodeInvalidState, "cannot draw while panning")
	}

	switch ev := ev.(type) {
	case Click:
		return click(s, ev)
	case Finish:
		return finish(s)
	case DoubleClick:
		next, eff := finish(dropTrailingDuplicate(s, ev.Radius))
		if _, rejected := eff.(Rejected); rejected {
			return s, eff
		}
		return next, eff
	case CalibrationCommitted:
		if p, ok := s.(PendingCalibration); ok && (ev.ID == "" || ev.ID == p.ID) {
			return CollectingCalibration{}, nil
		}
		return s, reject(errors.ErrCodeInvalidState, "no pending calibration %s", ev.ID)
	}
	return s, reject(errors.ErrCodeUnsupported, "unknown event %T", ev)
}

func selectTool(s State, t Tool) (State, Effect) {
	if !t.Valid() {
		return s, reject(errors.ErrCodeInvalidInput, "unknown tool %q", t)
	}
	cur := s
	if p, ok := s.(TemporaryPan); ok {
		cur = p.Prior
	}
	if toolOf(cur) == t && t != ToolPan {
		return s, nil
	}
	return Start(t), nil
}

// toolOf returns the tool a state collects for; Idle reports ToolPan.
func toolOf(s State) Tool {
	switch s.(type) {
	case CollectingCalibration, PendingCalibration:
		return ToolCalibrate
	case CollectingPolyline:
		return ToolPolyline
	case CollectingPolygon:
		return ToolPolygon
	}
	return ToolPan
}

func click(s State, ev Click) (State, Effect) {
	if !ev.Point.IsFinite() {
		return s, reject(errors.ErrCodeInvalidInput, "click point is not finite")
	}
	// Idle resumes collecting for the clicked tool, as after a cancel.
	if _, ok := s.(Idle); ok {
		if ev.Tool == ToolPan || !ev.Tool.Valid() {
			return s, nil
		}
		s = Start(ev.Tool)
	}

	switch st := s.(type) {
	case CollectingCalibration:
		if len(st.pts) == 0 {
			return CollectingCalibration{pts: []geometry.Point{ev.Point}}, nil
		}
		p1 := st.pts[0]
		if geometry.Distance(p1, ev.Point) == 0 {
			return s, reject(errors.ErrCodeDegenerateGeometry, "calibration segment has zero length")
		}
		pending := PendingCalibration{ID: uuid.NewString(), P1: p1, P2: ev.Point}
		return pending, CalibrationPending{ID: pending.ID, P1: p1, P2: ev.Point}

	case PendingCalibration:
		return s, reject(errors.ErrCodeInvalidState, "calibration %s awaits a reference length", st.ID)

	case CollectingPolyline:
		return CollectingPolyline{pts: appendPoint(st.pts, ev.Point)}, nil

	case CollectingPolygon:
		if len(st.pts) >= shape.MinPolygonPoints && geometry.Distance(st.pts[0], ev.Point) <= ev.CloseRadius {
			return CollectingPolygon{}, Finalized{Kind: shape.KindPolygon, Points: slices.Clone(st.pts)}
		}
		return CollectingPolygon{pts: appendPoint(st.pts, ev.Point)}, nil
	}
	return s, nil
}

func appendPoint(pts []geometry.Point, p geometry.Point) []geometry.Point {
	out := make([]geometry.Point, len(pts), len(pts)+1)
	copy(out, pts)
	return append(out, p)
}

func dropTrailingDuplicate(s State, radius float64) State {
	pts := s.Points()
	n := len(pts)
	if n < 2 || geometry.Distance(pts[n-2], pts[n-1]) > radius {
		return s
	}
	switch s.(type) {
	case CollectingPolyline:
		return CollectingPolyline{pts: pts[:n-1]}
	case CollectingPolygon:
		return CollectingPolygon{pts: pts[:n-1]}
	}
	return s
}

func finish(s State) (State, Effect) {
	switch st := s.(type) {
	case CollectingPolyline:
		if len(st.pts) < shape.MinPolylinePoints {
			return s, reject(errors.ErrCodeDegenerateGeometry,
				"polyline needs at least %d points, have %d", shape.MinPolylinePoints, len(st.pts))
		}
		return CollectingPolyline{}, Finalized{Kind: shape.KindPolyline, Points: slices.Clone(st.pts)}
	case CollectingPolygon:
		if len(st.pts) < shape.MinPolygonPoints {
			return s, reject(errors.ErrCodeDegenerateGeometry,
				"polygon needs at least %d points, have %d", shape.MinPolygonPoints, len(st.pts))
		}
		return CollectingPolygon{}, Finalized{Kind: shape.KindPolygon, Points: slices.Clone(st.pts)}
	case CollectingCalibration:
		return s, reject(errors.ErrCodeDegenerateGeometry, "calibration needs 2 points, have %d", len(st.pts))
	case PendingCalibration:
		return s, reject(errors.ErrCodeInvalidState, "calibration %s awaits a reference length", st.ID)
	}
	return s, nil
}
