package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/garmushka/pkg/calibration"
	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/geometry"
	"github.com/matzehuels/garmushka/pkg/shape"
	"github.com/matzehuels/garmushka/pkg/units"
)

func mustPolygon(t *testing.T, id, name string, pts ...geometry.Point) shape.Shape {
	t.Helper()
	p, err := shape.NewPolygon(shape.Meta{ID: id, Name: name, Color: "#22c55e"}, pts)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func mustPolyline(t *testing.T, id string, pts ...geometry.Point) shape.Shape {
	t.Helper()
	p, err := shape.NewPolyline(shape.Meta{ID: id, Name: "Distance", Color: "#3b82f6"}, pts)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func square(side float64) []geometry.Point {
	return []geometry.Point{geometry.Pt(0, 0), geometry.Pt(side, 0), geometry.Pt(side, side), geometry.Pt(0, side)}
}

func ids(s *Store) []string {
	var out []string
	for _, sh := range s.Shapes() {
		out = append(out, sh.Meta().ID)
	}
	return out
}

func populated(t *testing.T) *Store {
	s := New()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Append(mustPolygon(t, id, "Room "+id, square(10)...)); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestAppendRejectsDuplicateID(t *testing.T) {
	s := populated(t)
	err := s.Append(mustPolygon(t, "a", "again", square(1)...))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Append() error = %v, want INVALID_INPUT", err)
	}
	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		dir     Direction
		changed bool
		want    []string
	}{
		{"middle up", "b", Up, true, []string{"b", "a", "c"}},
		{"middle down", "b", Down, true, []string{"a", "c", "b"}},
		{"first up", "a", Up, false, []string{"a", "b", "c"}},
		{"last down", "c", Down, false, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := populated(t)
			changed, err := s.Reorder(tt.id, tt.dir)
			if err != nil {
				t.Fatal(err)
			}
			if changed != tt.changed {
				t.Errorf("changed = %v, want %v", changed, tt.changed)
			}
			if diff := cmp.Diff(tt.want, ids(s)); diff != "" {
				t.Errorf("order (-want +got):\n%s", diff)
			}
		})
	}

	if _, err := populated(t).Reorder("zzz", Up); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Reorder(unknown) error = %v", err)
	}
}

func TestRenameAndNotes(t *testing.T) {
	s := populated(t)
	changed, err := s.Rename("b", "Kitchen")
	if err != nil || !changed {
		t.Fatalf("Rename() = %v, %v", changed, err)
	}
	if changed, _ := s.Rename("b", "Kitchen"); changed {
		t.Error("renaming to the same name reported a change")
	}
	if _, err := s.Rename("b", ""); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("Rename(empty) error = %v", err)
	}
	if _, err := s.SetNotes("b", "tiled floor"); err != nil {
		t.Fatal(err)
	}
	sh, _ := s.Get("b")
	if sh.Meta().Name != "Kitchen" || sh.Meta().Notes != "tiled floor" {
		t.Errorf("Meta() = %+v", sh.Meta())
	}
	if _, err := s.SetColor("b", "#000"); err != nil {
		t.Errorf("SetColor() error = %v", err)
	}
}

func TestRemoveClearsSelection(t *testing.T) {
	s := populated(t)
	if err := s.Select("b"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Remove("b"); err != nil {
		t.Fatal(err)
	}
	if s.Selected() != "" {
		t.Errorf("Selected() = %q after removal", s.Selected())
	}
	if err := s.Select("b"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Select(removed) error = %v", err)
	}
	if _, err := s.Remove("b"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Remove(removed) error = %v", err)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := populated(t)
	s.SetCalibration(calibration.State{PixelsPerUnit: 10})
	snap := s.Snapshot()

	_, _ = s.Rename("a", "Changed")
	_, _ = s.Reorder("a", Down)
	_ = s.Append(mustPolyline(t, "d", geometry.Pt(0, 0), geometry.Pt(1, 0)))
	_, _ = s.Remove("c")
	s.SetCalibration(calibration.State{PixelsPerUnit: 99})

	if len(snap.Shapes) != 3 || snap.Shapes[0].Meta().Name != "Room a" {
		t.Fatalf("snapshot observed later mutations: %v", snap.Shapes)
	}

	s.Restore(snap)
	if diff := cmp.Diff([]string{"a", "b", "c"}, ids(s)); diff != "" {
		t.Errorf("restored order (-want +got):\n%s", diff)
	}
	if s.Calibration().PixelsPerUnit != 10 {
		t.Errorf("restored ppu = %v", s.Calibration().PixelsPerUnit)
	}
}

func TestRowsScaleWithCalibration(t *testing.T) {
	s := New()
	_ = s.Append(mustPolygon(t, "sq", "Square", square(100)...))
	_ = s.Append(mustPolyline(t, "ln", geometry.Pt(0, 0), geometry.Pt(100, 0)))

	want := []Row{
		{ID: "sq", Name: "Square", Type: shape.KindPolygon, Measurement: "10000.0 px²", Color: "#22c55e"},
		{ID: "ln", Name: "Distance", Type: shape.KindPolyline, Measurement: "100.0 px", Color: "#3b82f6"},
	}
	if diff := cmp.Diff(want, s.Rows(units.Metric)); diff != "" {
		t.Errorf("uncalibrated rows (-want +got):\n%s", diff)
	}

	s.SetCalibration(calibration.State{PixelsPerUnit: 10})
	want[0].Measurement = "100.00 m²"
	want[1].Measurement = "10.00 m"
	if diff := cmp.Diff(want, s.Rows(units.Metric)); diff != "" {
		t.Errorf("calibrated rows (-want +got):\n%s", diff)
	}

	s.SetCalibration(calibration.State{PixelsPerUnit: 20})
	want[0].Measurement = "25.00 m²"
	want[1].Measurement = "5.00 m"
	if diff := cmp.Diff(want, s.Rows(units.Metric)); diff != "" {
		t.Errorf("recalibrated rows (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	s := New()
	s.SetCalibration(calibration.State{PixelsPerUnit: 10})
	_ = s.Append(mustPolygon(t, "1", "Balcony 1", square(10)...))
	_ = s.Append(mustPolygon(t, "2", "Living room", square(100)...))
	_ = s.Append(mustPolygon(t, "3", "Balcony 2", square(20)...))
	_ = s.Append(mustPolyline(t, "4", geometry.Pt(0, 0), geometry.Pt(30, 40)))

	sum := s.Summarize(units.Metric)
	if sum.Polygons != 3 || sum.Polylines != 1 || sum.Calibrations != 0 {
		t.Errorf("counts = %d/%d/%d", sum.Polygons, sum.Polylines, sum.Calibrations)
	}
	if sum.AreaText != "105.00 m²" {
		t.Errorf("AreaText = %q, want 105.00 m²", sum.AreaText)
	}
	if sum.LengthText != "5.00 m" {
		t.Errorf("LengthText = %q, want 5.00 m", sum.LengthText)
	}
	if sum.Method != "manual" {
		t.Errorf("Method = %q", sum.Method)
	}

	wantGroups := []Group{
		{Label: "Balcony", Count: 2, AreaPx: 500, Area: 5, Text: "5.00 m²"},
		{Label: "Living", Count: 1, AreaPx: 10000, Area: 100, Text: "100.00 m²"},
	}
	if diff := cmp.Diff(wantGroups, sum.Groups); diff != "" {
		t.Errorf("groups (-want +got):\n%s", diff)
	}
}

func TestClear(t *testing.T) {
	s := populated(t)
	s.SetCalibration(calibration.State{PixelsPerUnit: 3})
	_ = s.Select("a")
	s.Clear()
	if s.Len() != 0 || s.Calibration().IsCalibrated() || s.Selected() != "" {
		t.Errorf("Clear() left %d shapes, ppu %v, selection %q", s.Len(), s.Calibration().PixelsPerUnit, s.Selected())
	}
}

func TestParseDirection(t *testing.T) {
	if d, err := ParseDirection("up"); err != nil || d != Up {
		t.Errorf("ParseDirection(up) = %v, %v", d, err)
	}
	if _, err := ParseDirection("left"); err == nil {
		t.Error("ParseDirection(left) want error")
	}
}
