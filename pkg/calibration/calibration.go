// Package calibration derives the global pixels-per-meter scale from a
// reference segment and its declared real-world length.
//
// A single [State] governs conversion for every shape in a session, so a
// recalibration changes the real-world value of every existing measurement
// while the stored pixel geometry stays untouched.
package calibration

import (
	"math"

	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/geometry"
	"github.com/matzehuels/garmushka/pkg/units"
)

// State holds the current scale. The zero value is uncalibrated.
type State struct {
	// PixelsPerUnit is model pixels per meter; 0 means uncalibrated.
	PixelsPerUnit float64 `json:"pixels_per_unit"`
}

// IsCalibrated reports whether a positive scale has been committed.
func (s State) IsCalibrated() bool {
	return s.PixelsPerUnit > 0
}

// Length converts a pixel length to meters. Uncalibrated states return 0.
func (s State) Length(px float64) float64 {
	return geometry.LengthReal(px, s.PixelsPerUnit)
}

// Area converts a pixel area to square meters. Uncalibrated states return 0.
func (s State) Area(px2 float64) float64 {
	return geometry.AreaReal(px2, s.PixelsPerUnit)
}

// FormatLength renders a pixel length in the current scale, or in pixels
// when uncalibrated.
func (s State) FormatLength(px float64, mode units.Mode) string {
	if !s.IsCalibrated() {
		return units.FormatPixels(px)
	}
	return units.FormatLength(s.Length(px), mode)
}

// FormatArea renders a pixel area in the current scale, or in square pixels
// when uncalibrated.
func (s State) FormatArea(px2 float64, mode units.Mode) string {
	if !s.IsCalibrated() {
		return units.FormatPixelArea(px2)
	}
	return units.FormatArea(s.Area(px2), mode)
}

// ValidateLength checks a declared reference length.
func ValidateLength(length float64) error {
	if math.IsNaN(length) || math.IsInf(length, 0) {
		return errors.New(errors.ErrCodeInvalidCalibration, "reference length must be a finite number")
	}
	if length <= 0 {
		return errors.New(errors.ErrCodeInvalidCalibration, "reference length must be positive, got %v", length)
	}
	return nil
}

// Commit derives a new state from the segment p1-p2 declared to be length
// units long. On rejection the returned state is prev unchanged and the
// error carries INVALID_CALIBRATION_INPUT, INVALID_UNIT or
// DEGENERATE_GEOMETRY.
func Commit(prev State, p1, p2 geometry.Point, length float64, unit units.Unit) (State, error) {
	if err := ValidateLength(length); err != nil {
		return prev, err
	}
	if !unit.Valid() {
		return prev, errors.New(errors.ErrCodeInvalidUnit, "unknown unit %q", unit)
	}
	px := geometry.Distance(p1, p2)
	if !(px > 0) || math.IsInf(px, 0) {
		return prev, errors.New(errors.ErrCodeDegenerateGeometry, "calibration segment has zero length")
	}
	return State{PixelsPerUnit: px / unit.ToMeters(length)}, nil
}
