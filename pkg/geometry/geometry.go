// Package geometry is the pure measurement kernel: point distance, polyline
// length, shoelace polygon area and a label-placement centroid.
//
// All coordinates are model space, the native pixel grid of the bitmap
// being measured. Nothing here knows about calibration; converting pixel
// quantities to real-world units is done by [LengthReal] and [AreaReal]
// with an explicit pixels-per-unit ratio.
//
// Every function is safe for concurrent use.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a model-space coordinate.
type Point struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Vec converts p to a gonum vector.
func (p Point) Vec() r2.Vec { return r2.Vec{X: p.X, Y: p.Y} }

// FromVec converts a gonum vector to a Point.
func FromVec(v r2.Vec) Point { return Point{X: v.X, Y: v.Y} }

// Add returns p+q.
func (p Point) Add(q Point) Point { return FromVec(r2.Add(p.Vec(), q.Vec())) }

// Sub returns p-q.
func (p Point) Sub(q Point) Point { return FromVec(r2.Sub(p.Vec(), q.Vec())) }

// Scale returns p scaled by f.
func (p Point) Scale(f float64) Point { return FromVec(r2.Scale(f, p.Vec())) }

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return r2.Norm(r2.Sub(b.Vec(), a.Vec()))
}

// PolylineLength returns the sum of consecutive segment lengths.
// Fewer than two points have length 0.
func PolylineLength(points []Point) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// SignedArea returns the shoelace sum halved without taking the absolute
// value. Counter-clockwise rings (in a y-up frame) are positive.
func SignedArea(points []Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := range n {
		sum += r2.Cross(points[i].Vec(), points[(i+1)%n].Vec())
	}
	return sum / 2
}

// PolygonArea returns the enclosed area of the implicitly closed ring.
// The result does not depend on the starting vertex or winding direction.
// Degenerate rings (fewer than three points, colinear points) yield 0.
func PolygonArea(points []Point) float64 {
	return math.Abs(SignedArea(points))
}

// PolygonCentroid returns the arithmetic mean of the vertices. It is used
// for label placement only and is not the area centroid.
func PolygonCentroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var c r2.Vec
	for _, p := range points {
		c = r2.Add(c, p.Vec())
	}
	return FromVec(r2.Scale(1/float64(len(points)), c))
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return PolygonCentroid([]Point{a, b})
}

// Bounds returns the axis-aligned bounding box of points.
// An empty slice yields two zero points.
func Bounds(points []Point) (minPt, maxPt Point) {
	if len(points) == 0 {
		return Point{}, Point{}
	}
	minPt, maxPt = points[0], points[0]
	for _, p := range points[1:] {
		minPt.X = math.Min(minPt.X, p.X)
		minPt.Y = math.Min(minPt.Y, p.Y)
		maxPt.X = math.Max(maxPt.X, p.X)
		maxPt.Y = math.Max(maxPt.Y, p.Y)
	}
	return minPt, maxPt
}

// LengthReal converts a pixel length to real units given a pixels-per-unit
// ratio. A non-positive ratio returns 0.
func LengthReal(lengthPx, pixelsPerUnit float64) float64 {
	if pixelsPerUnit <= 0 {
		return 0
	}
	return lengthPx / pixelsPerUnit
}

// AreaReal converts a pixel area to real square units given a
// pixels-per-unit ratio. A non-positive ratio returns 0.
func AreaReal(areaPx, pixelsPerUnit float64) float64 {
	if pixelsPerUnit <= 0 {
		return 0
	}
	return areaPx / (pixelsPerUnit * pixelsPerUnit)
}
