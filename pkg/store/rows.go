package store

import (
	"strings"

	"github.com/matzehuels/garmushka/pkg/calibration"
	"github.com/matzehuels/garmushka/pkg/shape"
	"github.com/matzehuels/garmushka/pkg/units"
)

// Row is the derived table projection of one shape.
type Row struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        shape.Kind `json:"type"`
	Measurement string     `json:"measurement"`
	Notes       string     `json:"notes"`
	Color       string     `json:"color"`
}

// Measure returns the pixel quantity behind a shape's measurement and
// whether it is an area.
func Measure(sh shape.Shape) (px float64, isArea bool) {
	switch v := sh.(type) {
	case shape.Calibration:
		return v.LengthPx(), false
	case shape.Polyline:
		return v.LengthPx(), false
	case shape.Polygon:
		return v.AreaPx(), true
	}
	return 0, false
}

// FormatMeasurement renders a shape's measurement under cal.
func FormatMeasurement(sh shape.Shape, cal calibration.State, mode units.Mode) string {
	px, isArea := Measure(sh)
	if isArea {
		return cal.FormatArea(px, mode)
	}
	return cal.FormatLength(px, mode)
}

// RowOf projects one shape.
func RowOf(sh shape.Shape, cal calibration.State, mode units.Mode) Row {
	m := sh.Meta()
	return Row{
		ID:          m.ID,
		Name:        m.Name,
		Type:        sh.Kind(),
		Measurement: FormatMeasurement(sh, cal, mode),
		Notes:       m.Notes,
		Color:       m.Color,
	}
}

// Rows projects every shape in display order.
func (s *Store) Rows(mode units.Mode) []Row {
	rows := make([]Row, len(s.shapes))
	for i, sh := range s.shapes {
		rows[i] = RowOf(sh, s.cal, mode)
	}
	return rows
}

// Group totals polygons whose names share a leading word, such as
// "Balcony 1" and "Balcony 2".
type Group struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	AreaPx float64 `json:"area_px"`
	Area   float64 `json:"area"`
	Text   string  `json:"text"`
}

// Summary aggregates the measurement set. Real values are in meters and
// square meters, and zero when uncalibrated.
type Summary struct {
	Calibrations int     `json:"calibrations"`
	Polylines    int     `json:"polylines"`
	Polygons     int     `json:"polygons"`
	LengthPx     float64 `json:"length_px"`
	Length       float64 `json:"length"`
	LengthText   string  `json:"length_text"`
	AreaPx       float64 `json:"area_px"`
	Area         float64 `json:"area"`
	AreaText     string  `json:"area_text"`
	Groups       []Group `json:"groups,omitempty"`
	Method       string  `json:"processing_method"`
}

// groupLabel returns the first word of name.
func groupLabel(name string) string {
	if f := strings.Fields(name); len(f) > 0 {
		return f[0]
	}
	return name
}

// Summarize totals polyline lengths and polygon areas, grouping polygon
// areas by the leading word of their names in first-seen order.
func (s *Store) Summarize(mode units.Mode) Summary {
	sum := Summary{Method: "manual"}
	index := map[string]int{}
	for _, sh := range s.shapes {
		px, _ := Measure(sh)
		switch sh.Kind() {
		case shape.KindCalibration:
			sum.Calibrations++
			continue
		case shape.KindPolyline:
			sum.Polylines++
			sum.LengthPx += px
			continue
		}
		sum.Polygons++
		sum.AreaPx += px
		label := groupLabel(sh.Meta().Name)
		i, ok := index[label]
		if !ok {
			i = len(sum.Groups)
			index[label] = i
			sum.Groups = append(sum.Groups, Group{Label: label})
		}
		sum.Groups[i].Count++
		sum.Groups[i].AreaPx += px
	}

	sum.Length = s.cal.Length(sum.LengthPx)
	sum.LengthText = s.cal.FormatLength(sum.LengthPx, mode)
	sum.Area = s.cal.Area(sum.AreaPx)
	sum.AreaText = s.cal.FormatArea(sum.AreaPx, mode)
	for i := range sum.Groups {
		g := &sum.Groups[i]
		g.Area = s.cal.Area(g.AreaPx)
		g.Text = s.cal.FormatArea(g.AreaPx, mode)
	}
	return sum
}
