package engine

import (
	"github.com/matzehuels/garmushka/pkg/builder"
	"github.com/matzehuels/garmushka/pkg/calibration"
	"github.com/matzehuels/garmushka/pkg/geometry"
	"github.com/matzehuels/garmushka/pkg/shape"
	"github.com/matzehuels/garmushka/pkg/store"
	"github.com/matzehuels/garmushka/pkg/units"
	"github.com/matzehuels/garmushka/pkg/view"
)

// Status is a read-only view of the engine for hosts and renderers.
type Status struct {
	Tool       Tool             `json:"tool"`
	Builder    string           `json:"builder"`
	Drawing    []geometry.Point `json:"drawing,omitempty"`
	PendingID  string           `json:"pending_id,omitempty"`
	Panning    bool             `json:"panning"`
	View       view.Transform   `json:"view"`
	Calibrated bool             `json:"calibrated"`
	Scale      float64          `json:"pixels_per_unit"`
	UnitMode   units.Mode       `json:"unit_mode"`
	Selected   string           `json:"selected,omitempty"`
	Shapes     int              `json:"shapes"`
	CanUndo    bool             `json:"can_undo"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
}

// Status returns the current engine status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{
		Tool:       e.tool,
		Builder:    e.state.String(),
		Drawing:    e.state.Points(),
		Panning:    builder.PanAllowed(e.state, e.tool),
		View:       e.view,
		Calibrated: e.store.Calibration().IsCalibrated(),
		Scale:      e.store.Calibration().PixelsPerUnit,
		UnitMode:   e.mode,
		Selected:   e.store.Selected(),
		Shapes:     e.store.Len(),
		CanUndo:    e.hist.CanUndo(),
		Width:      e.width,
		Height:     e.height,
	}
	if p, ok := e.state.(builder.PendingCalibration); ok {
		st.PendingID = p.ID
	}
	return st
}

// Rows returns the measurement table in display order.
func (e *Engine) Rows() []store.Row {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Rows(e.mode)
}

// Summary totals the measurement set.
func (e *Engine) Summary() store.Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Summarize(e.mode)
}

// Shapes returns the finalized shapes in display order.
func (e *Engine) Shapes() []shape.Shape {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Shapes()
}

// Calibration returns the current scale.
func (e *Engine) Calibration() calibration.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.store.Calibration()
}

// UnitMode returns the display mode.
func (e *Engine) UnitMode() units.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// View returns the current view transform.
func (e *Engine) View() view.Transform {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// Size returns the bitmap dimensions.
func (e *Engine) Size() (width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.width, e.height
}
