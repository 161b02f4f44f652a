// Package engine is the measurement aggregate: it owns the builder state,
// the shape store, the undo history and the view transform, and exposes
// one synchronous method per user action.
//
// Every method takes the engine lock, so an Engine can be shared by a
// concurrent host such as the HTTP server. No method blocks on I/O.
//
// User-level problems (a bad reference length, finishing a polygon with two
// points, an unknown shape id) are not Go errors: they come back as an
// [Outcome] with Accepted false and an error code, and the engine state is
// left as it was.
//
// Every effective change to the shape list or the scale is preceded by an
// undo snapshot of the previous state. Clear is the exception: it resets
// the history along with everything else.
package engine

import (
	"math"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/garmushka/pkg/builder"
	"github.com/matzehuels/garmushka/pkg/calibration"
	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/geometry"
	"github.com/matzehuels/garmushka/pkg/history"
	"github.com/matzehuels/garmushka/pkg/observability"
	"github.com/matzehuels/garmushka/pkg/shape"
	"github.com/matzehuels/garmushka/pkg/store"
	"github.com/matzehuels/garmushka/pkg/units"
	"github.com/matzehuels/garmushka/pkg/view"
)

// Tool is the active tool mode.
type Tool = builder.Tool

// Tool modes.
const (
	ToolPan       = builder.ToolPan
	ToolCalibrate = builder.ToolCalibrate
	ToolPolyline  = builder.ToolPolyline
	ToolPolygon   = builder.ToolPolygon
)

// Outcome reports the result of an engine action.
type Outcome struct {
	Accepted bool        `json:"accepted"`
	Code     errors.Code `json:"code,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	// ShapeID is set when the action created or addressed a shape.
	ShapeID string `json:"shape_id,omitempty"`
	// PendingID is set when a calibration segment awaits its length.
	PendingID string `json:"pending_id,omitempty"`
}

func ok() Outcome { return Outcome{Accepted: true} }

func rejected(err error) Outcome {
	return Outcome{Code: errors.GetCode(err), Reason: errors.UserMessage(err)}
}

// Engine is a single measurement session.
type Engine struct {
	mu sync.Mutex

	opts   Options
	logger *log.Logger

	tool   Tool
	state  builder.State
	view   view.Transform
	store  *store.Store
	hist   *history.Stack[store.Snapshot]
	mode   units.Mode
	width  int
	height int

	dragging bool
	lastDrag geometry.Point
}

// New creates an engine over a bitmap of width x height pixels.
func New(width, height int, opts Options) *Engine {
	opts.ValidateAndSetDefaults()
	e := &Engine{
		opts:   opts,
		logger: opts.Logger,
		tool:   ToolPan,
		state:  builder.Idle{},
		view:   view.New(opts.MinZoom, opts.MaxZoom),
		store:  store.New(),
		hist:   history.New[store.Snapshot](opts.HistoryDepth),
		mode:   opts.UnitMode,
		width:  width,
		height: height,
	}
	e.hist.Reset(e.store.Snapshot())
	return e
}

// reject logs and reports a refused action.
func (e *Engine) reject(op string, err error) Outcome {
	out := rejected(err)
	e.logger.Debug("rejected", "op", op, "code", out.Code, "reason", out.Reason)
	observability.Engine().OnRejected(op, string(out.Code))
	return out
}

// closeRadius converts the screen auto-close threshold to model units.
func (e *Engine) closeRadius() float64 {
	return e.view.ScreenDistanceToModel(e.opts.CloseThreshold)
}

// apply runs an event through the builder and handles its effect.
func (e *Engine) apply(op string, ev builder.Event) Outcome {
	before := e.state
	next, eff := builder.Reduce(e.state, ev)
	e.state = next
	if before.String() != next.String() {
		e.logger.Debug("builder", "op", op, "from", before, "to", next)
	}

	switch eff := eff.(type) {
	case nil:
		return ok()
	case builder.Rejected:
		return e.reject(op, eff.Err)
	case builder.CalibrationPending:
		e.logger.Debug("calibration segment", "id", eff.ID, "px", geometry.Distance(eff.P1, eff.P2))
		return Outcome{Accepted: true, PendingID: eff.ID}
	case builder.Finalized:
		return e.finalize(op, eff)
	}
	return ok()
}

// finalize turns builder points into a stored shape.
func (e *Engine) finalize(op string, f builder.Finalized) Outcome {
	meta := shape.DefaultMeta(f.Kind, e.store.Count(f.Kind))
	sh, err := shape.New(f.Kind, meta, f.Points, 0, "")
	if err != nil {
		return e.reject(op, err)
	}
	snap := e.store.Snapshot()
	if err := e.store.Append(sh); err != nil {
		return e.reject(op, err)
	}
	e.hist.Push(snap)

	e.logger.Debug("shape finalized", "kind", f.Kind, "id", meta.ID, "points", len(f.Points),
		"measurement", store.FormatMeasurement(sh, e.store.Calibration(), e.mode))
	observability.Engine().OnShapeFinalized(string(f.Kind), meta.ID)
	return Outcome{Accepted: true, ShapeID: meta.ID}
}

// SelectTool switches tools, discarding points collected for another tool.
func (e *Engine) SelectTool(t Tool) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := e.apply("select_tool", builder.SelectTool{Tool: t})
	if out.Accepted {
		e.tool = t
		e.dragging = false
	}
	return out
}

// Click adds the screen point p, mapped to model space, for the active tool.
func (e *Engine) Click(p geometry.Point) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.click(p)
}

func (e *Engine) click(p geometry.Point) Outcome {
	return e.apply("click", builder.Click{
		Point:       e.view.ScreenToModel(p),
		Tool:        e.tool,
		CloseRadius: e.closeRadius(),
	})
}

// PointerDown starts a pan drag when panning is allowed and is a click
// otherwise.
func (e *Engine) PointerDown(p geometry.Point) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if builder.PanAllowed(e.state, e.tool) {
		e.dragging = true
		e.lastDrag = p
		return ok()
	}
	return e.click(p)
}

// PointerMove pans the view while a drag is active.
func (e *Engine) PointerMove(p geometry.Point) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dragging {
		return ok()
	}
	e.view = e.view.PanBy(p.Sub(e.lastDrag))
	e.lastDrag = p
	return ok()
}

// PointerUp ends a pan drag.
func (e *Engine) PointerUp(geometry.Point) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dragging = false
	return ok()
}

// DoubleClick finalizes the polyline or polygon being drawn.
func (e *Engine) DoubleClick() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply("double_click", builder.DoubleClick{
		Radius: e.view.ScreenDistanceToModel(e.opts.DoubleClickRadius),
	})
}

// Finish finalizes the polyline or polygon being drawn.
func (e *Engine) Finish() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply("finish", builder.Finish{})
}

// Cancel discards the shape being drawn. The store is untouched.
func (e *Engine) Cancel() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dragging = false
	return e.apply("cancel", builder.Cancel{})
}

// BeginTemporaryPan suspends drawing so drags pan the view.
func (e *Engine) BeginTemporaryPan() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.apply("pan_start", builder.EnterPan{})
}

// EndTemporaryPan resumes drawing exactly where it was suspended.
func (e *Engine) EndTemporaryPan() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dragging = false
	return e.apply("pan_end", builder.ExitPan{})
}

// ZoomAt sets the zoom scale, keeping the point under pointer fixed.
func (e *Engine) ZoomAt(pointer geometry.Point, scale float64) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view = e.view.ZoomAt(pointer, scale)
	return ok()
}

// Wheel zooms by ZoomStep per notch; positive notches zoom in. The factor
// may overflow to +Inf or 0; the view clamps it to the zoom bounds.
func (e *Engine) Wheel(pointer geometry.Point, notches int) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	f := math.Pow(e.opts.ZoomStep, float64(notches))
	e.view = e.view.ZoomBy(pointer, f)
	return ok()
}

// Fit centers the bitmap in a viewport of the given size.
func (e *Engine) Fit(viewW, viewH float64) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view = e.view.Fit(float64(e.width), float64(e.height), viewW, viewH)
	return ok()
}

// CommitCalibration completes the pending reference segment with its
// declared length. On success the scale is replaced and every existing
// measurement is re-derived from it. A rejected commit leaves the pending
// segment in place so the caller can prompt again.
func (e *Engine) CommitCalibration(length float64, unit units.Unit) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	pending, isPending := e.state.(builder.PendingCalibration)
	if !isPending {
		return e.reject("commit_calibration", errors.New(errors.ErrCodeInvalidState, "no calibration segment awaiting a length"))
	}
	next, err := calibration.Commit(e.store.Calibration(), pending.P1, pending.P2, length, unit)
	if err != nil {
		return e.reject("commit_calibration", err)
	}
	meta := shape.DefaultMeta(shape.KindCalibration, e.store.Count(shape.KindCalibration))
	meta.ID = pending.ID
	sh, err := shape.NewCalibration(meta, pending.P1, pending.P2, length, unit)
	if err != nil {
		return e.reject("commit_calibration", err)
	}

	snap := e.store.Snapshot()
	if err := e.store.Append(sh); err != nil {
		return e.reject("commit_calibration", err)
	}
	e.hist.Push(snap)
	e.store.SetCalibration(next)
	e.state, _ = builder.Reduce(e.state, builder.CalibrationCommitted{ID: pending.ID})

	e.logger.Info("calibrated", "pixels_per_meter", next.PixelsPerUnit, "length", length, "unit", unit)
	observability.Engine().OnCalibrated(next.PixelsPerUnit)
	return Outcome{Accepted: true, ShapeID: pending.ID}
}

// mutate runs a store edit, recording an undo snapshot when it changed
// something.
func (e *Engine) mutate(op, id string, fn func() (bool, error)) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap := e.store.Snapshot()
	changed, err := fn()
	if err != nil {
		return e.reject(op, err)
	}
	if changed {
		e.hist.Push(snap)
		e.logger.Debug("edited", "op", op, "id", id)
	}
	return Outcome{Accepted: true, ShapeID: id}
}

// Rename sets a shape's name.
func (e *Engine) Rename(id, name string) Outcome {
	return e.mutate("rename", id, func() (bool, error) { return e.store.Rename(id, name) })
}

// SetNotes sets a shape's notes.
func (e *Engine) SetNotes(id, notes string) Outcome {
	return e.mutate("notes", id, func() (bool, error) { return e.store.SetNotes(id, notes) })
}

// SetColor sets a shape's color.
func (e *Engine) SetColor(id, color string) Outcome {
	return e.mutate("color", id, func() (bool, error) { return e.store.SetColor(id, color) })
}

// Reorder moves a shape one slot up or down; the ends are no-ops.
func (e *Engine) Reorder(id string, dir store.Direction) Outcome {
	return e.mutate("reorder", id, func() (bool, error) { return e.store.Reorder(id, dir) })
}

// Remove deletes a shape.
func (e *Engine) Remove(id string) Outcome {
	return e.mutate("remove", id, func() (bool, error) { return e.store.Remove(id) })
}

// Select highlights a shape; an empty id clears the selection. Selection
// is not undoable.
func (e *Engine) Select(id string) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Select(id); err != nil {
		return e.reject("select", err)
	}
	return Outcome{Accepted: true, ShapeID: id}
}

// Undo restores the state before the last change and cancels any shape in
// progress. Undoing past the first snapshot restores the session baseline
// and reports HISTORY_UNDERFLOW while still being accepted.
func (e *Engine) Undo() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state, _ = builder.Reduce(e.state, builder.Cancel{})
	e.dragging = false
	snap, restored := e.hist.Undo()
	e.store.Restore(snap)

	e.logger.Debug("undo", "restored", restored, "cursor", e.hist.Cursor(), "shapes", len(snap.Shapes))
	observability.Engine().OnUndo(restored, e.hist.Cursor()+1)
	if !restored {
		return Outcome{Accepted: true, Code: errors.ErrCodeHistoryUnderflow, Reason: "nothing to undo"}
	}
	return ok()
}

// Clear removes every shape, resets the calibration and empties the
// history. It cannot be undone.
func (e *Engine) Clear() Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state, _ = builder.Reduce(e.state, builder.Cancel{})
	e.store.Clear()
	e.hist.Reset(e.store.Snapshot())
	e.logger.Info("cleared")
	return ok()
}

// Load replaces the session contents, for example when reopening a saved
// session. The loaded state becomes the undo baseline.
func (e *Engine) Load(shapes []shape.Shape, pixelsPerUnit float64) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	probe := store.New()
	for _, sh := range shapes {
		if err := probe.Append(sh); err != nil {
			return e.reject("load", err)
		}
	}
	if pixelsPerUnit < 0 {
		return e.reject("load", errors.New(errors.ErrCodeInvalidCalibration, "negative scale %v", pixelsPerUnit))
	}
	e.state, _ = builder.Reduce(e.state, builder.Cancel{})
	e.store.Restore(store.Snapshot{Shapes: shapes, PixelsPerUnit: pixelsPerUnit})
	e.hist.Reset(e.store.Snapshot())
	return ok()
}

// SetUnitMode switches metric and imperial display.
func (e *Engine) SetUnitMode(m units.Mode) Outcome {
	e.mu.Lock()
	defer e.mu.Unlock()
	if m != units.Metric && m != units.Imperial {
		return e.reject("unit_mode", errors.New(errors.ErrCodeInvalidUnit, "unknown unit mode %q", m))
	}
	e.mode = m
	return ok()
}

// SetImageSize records the bitmap dimensions.
func (e *Engine) SetImageSize(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.width, e.height = width, height
}
