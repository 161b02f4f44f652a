package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/garmushka/pkg/engine"
	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/units"
)

const tomlScript = `
label = "floor-2"
width = 1000
height = 800
unit_mode = "imperial"

[[command]]
op = "select_tool"
tool = "calibrate"

[[command]]
op = "click"
x = 0.0
y = 0.0

[[command]]
op = "click"
x = 200.0
y = 0.0

[[command]]
op = "calibrate"
length = 4.0
unit = "m"
`

func TestParseTOML(t *testing.T) {
	s, err := Parse([]byte(tomlScript), FormatTOML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []engine.Command{
		{Op: engine.OpSelectTool, Tool: engine.ToolCalibrate},
		{Op: engine.OpClick},
		{Op: engine.OpClick, X: 200},
		{Op: engine.OpCalibrate, Length: 4, Unit: "m"},
	}
	if diff := cmp.Diff(want, s.Commands); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
	if s.Label != "floor-2" || s.Width != 1000 || s.Mode() != units.Imperial {
		t.Errorf("header = %+v", s)
	}
}

func TestParseJSONForms(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int
	}{
		{"object", `{"width": 10, "height": 10, "commands": [{"op": "undo"}, {"op": "clear"}]}`, 2},
		{"bare array", ` [{"op": "select_tool", "tool": "polygon"}]`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Parse([]byte(tt.data), FormatJSON)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(s.Commands) != tt.want {
				t.Errorf("len(Commands) = %d, want %d", len(s.Commands), tt.want)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		f    Format
		code errors.Code
	}{
		{"bad json", `{`, FormatJSON, errors.ErrCodeInvalidFormat},
		{"unknown toml key", "colour = 1", FormatTOML, errors.ErrCodeInvalidFormat},
		{"missing op", `[{"x": 1}]`, FormatJSON, errors.ErrCodeInvalidInput},
		{"bad mode", `{"unit_mode": "nautical"}`, FormatJSON, errors.ErrCodeInvalidUnit},
		{"negative size", `{"width": -1}`, FormatJSON, errors.ErrCodeInvalidInput},
		{"unknown format", `[]`, Format("yaml"), errors.ErrCodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.f)
			if !errors.Is(err, tt.code) {
				t.Errorf("Parse() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestLoadResolvesImageAndLabel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plan.json")
	if err := os.WriteFile(path, []byte(`{"image": "scan.png", "commands": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := filepath.Join(dir, "scan.png"); s.Image != want {
		t.Errorf("Image = %q, want %q", s.Image, want)
	}
	if s.Label != "scan.png" {
		t.Errorf("Label = %q, want scan.png", s.Label)
	}

	if _, err := Load(filepath.Join(dir, "plan.yaml")); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Load(.yaml) error = %v", err)
	}
}

func TestReplayScenario(t *testing.T) {
	s, err := Parse([]byte(tomlScript), FormatTOML)
	if err != nil {
		t.Fatal(err)
	}
	e := engine.New(s.Width, s.Height, engine.Options{UnitMode: s.Mode()})
	for _, r := range e.Run(s.Commands) {
		if !r.Outcome.Accepted {
			t.Fatalf("command %d rejected: %s", r.Index, r.Outcome.Reason)
		}
	}
	if got := e.Calibration().PixelsPerUnit; got != 50 {
		t.Errorf("PixelsPerUnit = %v, want 50", got)
	}
}
