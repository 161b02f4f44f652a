package export

import (
	"bytes"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/garmushka/pkg/engine"
	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/geometry"
	"github.com/matzehuels/garmushka/pkg/units"
)

func mustAccept(t *testing.T, out engine.Outcome) engine.Outcome {
	t.Helper()
	if !out.Accepted {
		t.Fatalf("outcome rejected: %s %s", out.Code, out.Reason)
	}
	return out
}

// sampleEngine builds a calibrated session with one distance and two areas.
func sampleEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e := engine.New(200, 100, engine.Options{})
	mustAccept(t, e.SelectTool(engine.ToolCalibrate))
	mustAccept(t, e.Click(geometry.Pt(0, 90)))
	mustAccept(t, e.Click(geometry.Pt(100, 90)))
	mustAccept(t, e.CommitCalibration(2, units.Meter))

	mustAccept(t, e.SelectTool(engine.ToolPolyline))
	mustAccept(t, e.Click(geometry.Pt(10, 10)))
	mustAccept(t, e.Click(geometry.Pt(110, 10)))
	line := mustAccept(t, e.Finish())
	mustAccept(t, e.Rename(line.ShapeID, "קיר צפוני"))
	mustAccept(t, e.SetNotes(line.ShapeID, "north, \"outer\" wall"))

	for _, x := range []float64{120, 160} {
		mustAccept(t, e.SelectTool(engine.ToolPolygon))
		for _, p := range []geometry.Point{geometry.Pt(x, 20), geometry.Pt(x+30, 20), geometry.Pt(x+30, 50), geometry.Pt(x, 50)} {
			mustAccept(t, e.Click(p))
		}
		area := mustAccept(t, e.Finish())
		mustAccept(t, e.Rename(area.ShapeID, "Room "+string(rune('A'+int(x)%3))))
	}
	return e
}

func TestJSONRoundTripReproducesMeasurements(t *testing.T) {
	e := sampleEngine(t)
	p := FromEngine(e, "plan.png")

	var buf bytes.Buffer
	if err := WriteJSON(p, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}

	rebuilt, err := got.Engine(engine.Options{})
	if err != nil {
		t.Fatalf("Engine: %v", err)
	}
	if diff := cmp.Diff(e.Rows(), rebuilt.Rows()); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(e.Summary(), rebuilt.Summary()); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestExportFiles(t *testing.T) {
	p := FromEngine(sampleEngine(t), "plan.png")
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "plan.json")
	if err := ExportJSON(p, jsonPath); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	f, err := os.Open(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := ReadJSON(f)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if diff := cmp.Diff(p, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}

	csvPath := filepath.Join(dir, "plan.csv")
	if err := ExportCSV(p, csvPath, CSVOptions{}); err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "#,Name,Type,Measurement") {
		t.Errorf("csv header = %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	missing := filepath.Join(dir, "missing", "plan.json")
	if err := ExportJSON(p, missing); err == nil {
		t.Error("ExportJSON(missing dir) = nil, want error")
	}
	if err := ExportCSV(p, missing, CSVOptions{}); err == nil {
		t.Error("ExportCSV(missing dir) = nil, want error")
	}
}

func TestReadJSONRejects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"garbage", `{`},
		{"unknown field", `{"version":1,"unit_mode":"metric","bogus":1}`},
		{"wrong version", `{"version":7,"unit_mode":"metric"}`},
		{"calibration flag mismatch", `{"version":1,"unit_mode":"metric","pixels_per_unit":5}`},
		{"bad unit mode", `{"version":1,"unit_mode":"cubits"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.json))
			if !errors.Is(err, errors.ErrCodeInvalidFormat) {
				t.Errorf("ReadJSON() error = %v, want INVALID_FORMAT", err)
			}
		})
	}
}

func TestWriteCSV(t *testing.T) {
	p := FromEngine(sampleEngine(t), "plan.png")

	var buf bytes.Buffer
	if err := WriteCSV(p, &buf, CSVOptions{BOM: true, Summary: true}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\uFEFF#,Name,Type,Measurement,Notes,Color,ID\n") {
		t.Errorf("missing BOM or header: %q", out[:min(len(out), 60)])
	}
	for _, want := range []string{
		"1,Calibration 1,Calibration,2.00 m,,#ef4444,",
		"2,קיר צפוני,Distance,2.00 m,\"north, \"\"outer\"\" wall\",#3b82f6,",
		",Total area,Area,0.72 m²,2 shapes",
		",Total length,Distance,2.00 m,1 shapes",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("csv missing %q\n%s", want, out)
		}
	}
}

func TestWriteCSVPlain(t *testing.T) {
	p := FromEngine(engine.New(10, 10, engine.Options{}), "")
	var buf bytes.Buffer
	if err := WriteCSV(p, &buf, CSVOptions{}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if got, want := buf.String(), "#,Name,Type,Measurement,Notes,Color,ID\n"; got != want {
		t.Errorf("WriteCSV() = %q, want %q", got, want)
	}
}

func TestRenderDrawsShapes(t *testing.T) {
	e := sampleEngine(t)
	img := Render(SceneFromEngine(e, nil), RasterOptions{})

	if b := img.Bounds(); b.Dx() != 200 || b.Dy() != 100 {
		t.Fatalf("bounds = %v, want 200x100", b)
	}
	tests := []struct {
		name string
		x, y int
		want color.RGBA
	}{
		{"polyline stroke", 60, 10, color.RGBA{0x3b, 0x82, 0xf6, 0xff}},
		{"calibration stroke", 50, 90, color.RGBA{0xef, 0x44, 0x44, 0xff}},
		{"blank sheet", 5, 50, color.RGBA{0xff, 0xff, 0xff, 0xff}},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("%s: pixel(%d,%d) = %v, want %v", tt.name, tt.x, tt.y, got, tt.want)
		}
	}
	if fill := img.RGBAAt(135, 35); fill.G <= fill.R || fill == (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Errorf("polygon interior = %v, want a green tint", fill)
	}
}

func TestRenderFollowsView(t *testing.T) {
	e := sampleEngine(t)
	mustAccept(t, e.ZoomAt(geometry.Pt(0, 0), 2))
	img := Render(SceneFromEngine(e, nil), RasterOptions{Width: 400, Height: 200})
	if got, want := img.RGBAAt(120, 20), (color.RGBA{0x3b, 0x82, 0xf6, 0xff}); got != want {
		t.Errorf("zoomed polyline pixel = %v, want %v", got, want)
	}
}

func TestRenderCapsCanvas(t *testing.T) {
	e := engine.New(100_000, 100_000, engine.Options{})
	tests := []struct {
		name string
		opts RasterOptions
	}{
		{"view sized", RasterOptions{}},
		{"wide", RasterOptions{Width: 1 << 30, Height: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Render(SceneFromEngine(e, nil), tt.opts).Bounds()
			if b.Dx() < 1 || b.Dy() < 1 || b.Dx()*b.Dy() > MaxRenderPixels {
				t.Errorf("bounds = %v, want at most %d pixels", b, MaxRenderPixels)
			}
		})
	}
}

func TestRenderLabelsAndPNG(t *testing.T) {
	e := sampleEngine(t)
	img := Render(SceneFromEngine(e, nil), RasterOptions{Labels: true})

	p := FromEngine(e, "plan.png")
	if err := p.AttachSnapshot(img); err != nil {
		t.Fatalf("AttachSnapshot: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(p.RasterSnapshot))
	if err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("snapshot bounds = %v, want %v", decoded.Bounds(), img.Bounds())
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"csv", ".JSON", " png "} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q) error = %v", s, err)
		}
	}
	if _, err := ParseFormat("xlsx"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ParseFormat(xlsx) error = %v", err)
	}
}

func TestParseHex(t *testing.T) {
	tests := map[string]color.RGBA{
		"#3b82f6": {0x3b, 0x82, 0xf6, 0xff},
		"#fff":    {0xff, 0xff, 0xff, 0xff},
		"nope":    {0, 0, 0, 0xff},
	}
	for in, want := range tests {
		if got := parseHex(in); got != want {
			t.Errorf("parseHex(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSnapshotFitsSheet(t *testing.T) {
	e := sampleEngine(t)
	mustAccept(t, e.ZoomAt(geometry.Pt(0, 0), 4))
	img := Snapshot(SceneFromEngine(e, nil), 400, 400)
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 400 {
		t.Fatalf("bounds = %v", b)
	}
	// The 200x100 sheet is scaled by 2 and centred vertically: rows above
	// it keep the canvas colour.
	if got := img.RGBAAt(10, 10); got != canvasColor {
		t.Errorf("pixel above sheet = %v, want canvas %v", got, canvasColor)
	}
	if got := img.RGBAAt(10, 200); got == canvasColor {
		t.Errorf("pixel inside sheet = %v, want sheet", got)
	}
}
