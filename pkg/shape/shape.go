// Package shape defines the finalized measurement shapes.
//
// [Shape] is a closed variant: [Calibration], [Polyline] and [Polygon] are
// the only implementations. Constructors enforce the per-variant point
// counts, so a value obtained from this package always satisfies them.
// Shapes are values; the With* methods return modified copies and never
// touch point geometry.
package shape

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/geometry"
	"github.com/matzehuels/garmushka/pkg/units"
)

// Kind names a shape variant.
type Kind string

const (
	KindCalibration Kind = "calibration"
	KindPolyline    Kind = "polyline"
	KindPolygon     Kind = "polygon"
)

// Minimum vertex counts per kind.
const (
	CalibrationPoints = 2
	MinPolylinePoints = 2
	MinPolygonPoints  = 3
)

// ParseKind validates a kind string.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindCalibration, KindPolyline, KindPolygon:
		return k, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown shape kind %q", s)
}

// MinPoints returns the minimum number of vertices for k.
func (k Kind) MinPoints() int {
	switch k {
	case KindCalibration:
		return CalibrationPoints
	case KindPolyline:
		return MinPolylinePoints
	default:
		return MinPolygonPoints
	}
}

// Meta is shared by every variant.
type Meta struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Notes string `json:"notes,omitempty"`
	Color string `json:"color"`
}

// Shape is a finalized measurement.
type Shape interface {
	Kind() Kind
	Meta() Meta
	// Points returns a copy of the vertices.
	Points() []geometry.Point

	withMeta(Meta) Shape
}

// NewID returns a fresh session-unique shape id.
func NewID() string {
	return uuid.NewString()
}

// Calibration is the two-point reference segment with its declared length.
type Calibration struct {
	meta   Meta
	p1, p2 geometry.Point
	length float64
	unit   units.Unit
}

// Polyline is an open distance path.
type Polyline struct {
	meta   Meta
	points []geometry.Point
}

// Polygon is a closed area ring. The ring is implicitly closed; the first
// vertex is not repeated.
type Polygon struct {
	meta   Meta
	points []geometry.Point
}

var (
	_ Shape = Calibration{}
	_ Shape = Polyline{}
	_ Shape = Polygon{}
)

func checkPoints(kind Kind, points []geometry.Point) error {
	if len(points) < kind.MinPoints() {
		return errors.New(errors.ErrCodeDegenerateGeometry,
			"%s needs at least %d points, got %d", kind, kind.MinPoints(), len(points))
	}
	for i, p := range points {
		if !p.IsFinite() {
			return errors.New(errors.ErrCodeInvalidInput, "%s point %d is not finite", kind, i)
		}
	}
	return nil
}

func checkMeta(m Meta) error {
	if m.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "shape id cannot be empty")
	}
	if err := errors.ValidateShapeName(m.Name); err != nil {
		return err
	}
	if err := errors.ValidateNotes(m.Notes); err != nil {
		return err
	}
	return errors.ValidateColor(m.Color)
}

// NewCalibration builds a calibration shape. The declared length is kept
// for display; the scale itself lives in the calibration state.
func NewCalibration(m Meta, p1, p2 geometry.Point, length float64, unit units.Unit) (Calibration, error) {
	if err := checkPoints(KindCalibration, []geometry.Point{p1, p2}); err != nil {
		return Calibration{}, err
	}
	if geometry.Distance(p1, p2) == 0 {
		return Calibration{}, errors.New(errors.ErrCodeDegenerateGeometry, "calibration segment has zero length")
	}
	if !unit.Valid() {
		return Calibration{}, errors.New(errors.ErrCodeInvalidUnit, "unknown unit %q", unit)
	}
	if !(length > 0) {
		return Calibration{}, errors.New(errors.ErrCodeInvalidCalibration, "reference length must be positive")
	}
	if err := checkMeta(m); err != nil {
		return Calibration{}, err
	}
	return Calibration{meta: m, p1: p1, p2: p2, length: length, unit: unit}, nil
}

// NewPolyline builds a polyline with at least two points.
func NewPolyline(m Meta, points []geometry.Point) (Polyline, error) {
	if err := checkPoints(KindPolyline, points); err != nil {
		return Polyline{}, err
	}
	if err := checkMeta(m); err != nil {
		return Polyline{}, err
	}
	return Polyline{meta: m, points: slices.Clone(points)}, nil
}

// NewPolygon builds a polygon with at least three vertices.
func NewPolygon(m Meta, points []geometry.Point) (Polygon, error) {
	if err := checkPoints(KindPolygon, points); err != nil {
		return Polygon{}, err
	}
	if err := checkMeta(m); err != nil {
		return Polygon{}, err
	}
	return Polygon{meta: m, points: slices.Clone(points)}, nil
}

// New dispatches to the constructor for kind. Calibration shapes need
// length and unit; the other kinds ignore them.
func New(kind Kind, m Meta, points []geometry.Point, length float64, unit units.Unit) (Shape, error) {
	switch kind {
	case KindCalibration:
		if len(points) != CalibrationPoints {
			return nil, errors.New(errors.ErrCodeDegenerateGeometry, "calibration needs exactly 2 points, got %d", len(points))
		}
		return NewCalibration(m, points[0], points[1], length, unit)
	case KindPolyline:
		return NewPolyline(m, points)
	case KindPolygon:
		return NewPolygon(m, points)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown shape kind %q", kind)
}

func (Calibration) Kind() Kind                 { return KindCalibration }
func (c Calibration) Meta() Meta               { return c.meta }
func (c Calibration) Points() []geometry.Point { return []geometry.Point{c.p1, c.p2} }
func (c Calibration) withMeta(m Meta) Shape {
	c.meta = m
	return c
}
func (Polyline) Kind() Kind                 { return KindPolyline }
func (p Polyline) Meta() Meta               { return p.meta }
func (p Polyline) Points() []geometry.Point { return slices.Clone(p.points) }
func (p Polyline) withMeta(m Meta) Shape {
	p.meta = m
	return p
}
func (Polygon) Kind() Kind                 { return KindPolygon }
func (p Polygon) Meta() Meta               { return p.meta }
func (p Polygon) Points() []geometry.Point { return slices.Clone(p.points) }
func (p Polygon) withMeta(m Meta) Shape {
	p.meta = m
	return p
}

// DeclaredLength returns the length and unit typed in when calibrating.
func (c Calibration) DeclaredLength() (float64, units.Unit) { return c.length, c.unit }

// LengthPx returns the reference segment length in pixels.
func (c Calibration) LengthPx() float64 { return geometry.Distance(c.p1, c.p2) }

// LengthPx returns the path length in pixels.
func (p Polyline) LengthPx() float64 { return geometry.PolylineLength(p.points) }

// AreaPx returns the enclosed area in square pixels.
func (p Polygon) AreaPx() float64 { return geometry.PolygonArea(p.points) }

// PerimeterPx returns the closed ring length in pixels.
func (p Polygon) PerimeterPx() float64 {
	return geometry.PolylineLength(p.points) + geometry.Distance(p.points[len(p.points)-1], p.points[0])
}

// LabelAnchor returns where a label for s is drawn: the vertex mean for
// polygons and the middle of the first segment otherwise.
func LabelAnchor(s Shape) geometry.Point {
	pts := s.Points()
	if s.Kind() == KindPolygon {
		return geometry.PolygonCentroid(pts)
	}
	return geometry.Midpoint(pts[0], pts[1])
}

// WithName returns s renamed.
func WithName(s Shape, name string) (Shape, error) {
	if err := errors.ValidateShapeName(name); err != nil {
		return s, err
	}
	m := s.Meta()
	m.Name = name
	return s.withMeta(m), nil
}

// WithNotes returns s with new notes.
func WithNotes(s Shape, notes string) (Shape, error) {
	if err := errors.ValidateNotes(notes); err != nil {
		return s, err
	}
	m := s.Meta()
	m.Notes = notes
	return s.withMeta(m), nil
}

// WithColor returns s recolored.
func WithColor(s Shape, color string) (Shape, error) {
	if err := errors.ValidateColor(color); err != nil {
		return s, err
	}
	m := s.Meta()
	m.Color = color
	return s.withMeta(m), nil
}
