// Package view maps screen-space pointer positions to model space under
// pan and zoom.
//
// A [Transform] is a value: every operation returns a new Transform and
// leaves the receiver untouched. The mapping is
//
//	screen = model*Scale + Offset
//	model  = (screen - Offset) / Scale
//
// Scale is always clamped to [MinScale, MaxScale].
package view

import (
	"math"

	"golang.org/x/image/math/f64"

	"github.com/matzehuels/garmushka/pkg/geometry"
)

// Default zoom bounds.
const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 5.0
)

// Transform is the pan/zoom state of a viewport over the bitmap.
type Transform struct {
	Scale    float64        `json:"scale"`
	Offset   geometry.Point `json:"offset"`
	MinScale float64        `json:"min_scale"`
	MaxScale float64        `json:"max_scale"`
}

// New returns the identity transform with the given zoom bounds.
// Non-positive or inverted bounds fall back to the defaults.
func New(minScale, maxScale float64) Transform {
	if minScale <= 0 || maxScale <= 0 || minScale > maxScale {
		minScale, maxScale = DefaultMinScale, DefaultMaxScale
	}
	t := Transform{Scale: 1, MinScale: minScale, MaxScale: maxScale}
	t.Scale = t.clamp(1)
	return t
}

// Identity returns the identity transform with default bounds.
func Identity() Transform {
	return New(DefaultMinScale, DefaultMaxScale)
}

func (t Transform) clamp(s float64) float64 {
	if math.IsNaN(s) {
		return t.Scale
	}
	return math.Max(t.MinScale, math.Min(t.MaxScale, s))
}

// ScreenToModel maps a screen point into model space.
func (t Transform) ScreenToModel(p geometry.Point) geometry.Point {
	return p.Sub(t.Offset).Scale(1 / t.Scale)
}

// ModelToScreen maps a model point into screen space.
func (t Transform) ModelToScreen(p geometry.Point) geometry.Point {
	return p.Scale(t.Scale).Add(t.Offset)
}

// ScreenDistanceToModel converts a screen-space radius to model space.
func (t Transform) ScreenDistanceToModel(d float64) float64 {
	return d / t.Scale
}

// ZoomAt sets the scale to newScale (clamped) keeping the model point under
// pointer fixed on screen.
func (t Transform) ZoomAt(pointer geometry.Point, newScale float64) Transform {
	s := t.clamp(newScale)
	anchor := pointer.Sub(t.Offset).Scale(1 / t.Scale)
	t.Offset = pointer.Sub(anchor.Scale(s))
	t.Scale = s
	return t
}

// ZoomBy multiplies the scale by factor around pointer.
func (t Transform) ZoomBy(pointer geometry.Point, factor float64) Transform {
	return t.ZoomAt(pointer, t.Scale*factor)
}

// PanBy shifts the view by a screen-space delta.
func (t Transform) PanBy(delta geometry.Point) Transform {
	t.Offset = t.Offset.Add(delta)
	return t
}

// Fit scales and centers a bitmap of imgW x imgH inside a viewport of
// viewW x viewH. Degenerate sizes return t unchanged.
func (t Transform) Fit(imgW, imgH, viewW, viewH float64) Transform {
	if imgW <= 0 || imgH <= 0 || viewW <= 0 || viewH <= 0 {
		return t
	}
	t.Scale = t.clamp(math.Min(viewW/imgW, viewH/imgH))
	t.Offset = geometry.Pt((viewW-imgW*t.Scale)/2, (viewH-imgH*t.Scale)/2)
	return t
}

// Aff3 returns the model-to-screen mapping as an affine matrix suitable for
// golang.org/x/image/draw transformers.
func (t Transform) Aff3() f64.Aff3 {
	return f64.Aff3{
		t.Scale, 0, t.Offset.X,
		0, t.Scale, t.Offset.Y,
	}
}
