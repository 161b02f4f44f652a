package engine

import (
	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/geometry"
	"github.com/matzehuels/garmushka/pkg/store"
	"github.com/matzehuels/garmushka/pkg/units"
)

// Op names an engine action in a Command.
type Op string

// Command operations.
const (
	OpSelectTool  Op = "select_tool"
	OpClick       Op = "click"
	OpPointerDown Op = "pointer_down"
	OpPointerMove Op = "pointer_move"
	OpPointerUp   Op = "pointer_up"
	OpDoubleClick Op = "double_click"
	OpFinish      Op = "finish"
	OpCancel      Op = "cancel"
	OpPanStart    Op = "pan_start"
	OpPanEnd      Op = "pan_end"
	OpZoom        Op = "zoom"
	OpWheel       Op = "wheel"
	OpFit         Op = "fit"
	OpCalibrate   Op = "calibrate"
	OpRename      Op = "rename"
	OpNotes       Op = "notes"
	OpColor       Op = "color"
	OpReorder     Op = "reorder"
	OpRemove      Op = "remove"
	OpSelect      Op = "select"
	OpUndo        Op = "undo"
	OpClear       Op = "clear"
	OpUnitMode    Op = "unit_mode"
)

// Command is a serializable engine action. Replay scripts and the HTTP API
// both speak this schema; fields irrelevant to Op are ignored.
//
// Coordinates are screen space; with the default view they equal bitmap
// pixels.
type Command struct {
	Op        Op      `json:"op" toml:"op"`
	X         float64 `json:"x,omitempty" toml:"x"`
	Y         float64 `json:"y,omitempty" toml:"y"`
	Tool      Tool    `json:"tool,omitempty" toml:"tool"`
	Length    float64 `json:"length,omitempty" toml:"length"`
	Unit      string  `json:"unit,omitempty" toml:"unit"`
	Scale     float64 `json:"scale,omitempty" toml:"scale"`
	Notches   int     `json:"notches,omitempty" toml:"notches"`
	Width     float64 `json:"width,omitempty" toml:"width"`
	Height    float64 `json:"height,omitempty" toml:"height"`
	ID        string  `json:"id,omitempty" toml:"id"`
	Name      string  `json:"name,omitempty" toml:"name"`
	Notes     string  `json:"notes,omitempty" toml:"notes"`
	Color     string  `json:"color,omitempty" toml:"color"`
	Direction string  `json:"direction,omitempty" toml:"direction"`
	Mode      string  `json:"mode,omitempty" toml:"mode"`
}

// LastShape is a Command ID placeholder for the most recently created
// shape, so scripts can rename a shape without knowing its generated id.
const LastShape = "$last"

// Apply runs cmd against e. last is substituted for LastShape ids.
func (e *Engine) Apply(cmd Command, last string) Outcome {
	id := cmd.ID
	if id == LastShape {
		id = last
	}
	pt := geometry.Pt(cmd.X, cmd.Y)

	switch cmd.Op {
	case OpSelectTool:
		return e.SelectTool(cmd.Tool)
	case OpClick:
		return e.Click(pt)
	case OpPointerDown:
		return e.PointerDown(pt)
	case OpPointerMove:
		return e.PointerMove(pt)
	case OpPointerUp:
		return e.PointerUp(pt)
	case OpDoubleClick:
		return e.DoubleClick()
	case OpFinish:
		return e.Finish()
	case OpCancel:
		return e.Cancel()
	case OpPanStart:
		return e.BeginTemporaryPan()
	case OpPanEnd:
		return e.EndTemporaryPan()
	case OpZoom:
		return e.ZoomAt(pt, cmd.Scale)
	case OpWheel:
		return e.Wheel(pt, cmd.Notches)
	case OpFit:
		return e.Fit(cmd.Width, cmd.Height)
	case OpCalibrate:
		u, err := units.ParseUnit(cmd.Unit)
		if err != nil {
			return rejected(err)
		}
		return e.CommitCalibration(cmd.Length, u)
	case OpRename:
		return e.Rename(id, cmd.Name)
	case OpNotes:
		return e.SetNotes(id, cmd.Notes)
	case OpColor:
		return e.SetColor(id, cmd.Color)
	case OpReorder:
		dir, err := store.ParseDirection(cmd.Direction)
		if err != nil {
			return rejected(err)
		}
		return e.Reorder(id, dir)
	case OpRemove:
		return e.Remove(id)
	case OpSelect:
		return e.Select(id)
	case OpUndo:
		return e.Undo()
	case OpClear:
		return e.Clear()
	case OpUnitMode:
		m, err := units.ParseMode(cmd.Mode)
		if err != nil {
			return rejected(err)
		}
		return e.SetUnitMode(m)
	}
	return rejected(errors.New(errors.ErrCodeInvalidInput, "unknown op %q", cmd.Op))
}

// Result pairs a command with its outcome.
type Result struct {
	Index   int     `json:"index"`
	Command Command `json:"command"`
	Outcome Outcome `json:"outcome"`
}

// Run applies commands in order, tracking the last created shape for
// LastShape references. Rejected commands do not stop the run.
func (e *Engine) Run(cmds []Command) []Result {
	results := make([]Result, len(cmds))
	var last string
	for i, cmd := range cmds {
		out := e.Apply(cmd, last)
		if out.ShapeID != "" && cmd.Op != OpRemove {
			last = out.ShapeID
		}
		results[i] = Result{Index: i, Command: cmd, Outcome: out}
	}
	return results
}
