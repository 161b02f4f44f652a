// Package units converts declared real-world lengths to meters and formats
// measurements for display in metric or imperial notation.
//
// The canonical unit is the meter: calibration ratios are pixels per meter
// and every real-valued measurement handed to this package is in meters
// (lengths) or square meters (areas).
package units

import (
	"fmt"
	"strings"

	"github.com/matzehuels/garmushka/pkg/errors"
)

// Unit is a length unit a calibration can be declared in.
type Unit string

// Supported declaration units.
const (
	Millimeter Unit = "mm"
	Centimeter Unit = "cm"
	Meter      Unit = "m"
	Inch       Unit = "in"
	Foot       Unit = "ft"
)

const (
	metersPerFoot = 0.3048
	metersPerInch = 0.0254
)

var metersPer = map[Unit]float64{
	Millimeter: 0.001,
	Centimeter: 0.01,
	Meter:      1,
	Inch:       metersPerInch,
	Foot:       metersPerFoot,
}

var unitAliases = map[string]Unit{
	"mm": Millimeter, "millimeter": Millimeter, "millimeters": Millimeter,
	"cm": Centimeter, "centimeter": Centimeter, "centimeters": Centimeter,
	"m": Meter, "meter": Meter, "meters": Meter, "metre": Meter, "metres": Meter,
	"in": Inch, "inch": Inch, "inches": Inch, `"`: Inch,
	"ft": Foot, "foot": Foot, "feet": Foot, "'": Foot,
}

// Units returns every supported unit, smallest first.
func Units() []Unit {
	return []Unit{Millimeter, Centimeter, Inch, Foot, Meter}
}

// ParseUnit resolves a unit name or common alias, case-insensitively.
func ParseUnit(s string) (Unit, error) {
	if u, ok := unitAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return u, nil
	}
	return "", errors.New(errors.ErrCodeInvalidUnit, "unknown unit %q (want mm, cm, m, in or ft)", s)
}

// ToMeters converts v expressed in u to meters.
func (u Unit) ToMeters(v float64) float64 {
	return v * metersPer[u]
}

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	_, ok := metersPer[u]
	return ok
}

// Mode selects the display notation.
type Mode string

const (
	Metric   Mode = "metric"
	Imperial Mode = "imperial"
)

// ParseMode resolves "metric" or "imperial". Empty input means metric.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Metric):
		return Metric, nil
	case string(Imperial):
		return Imperial, nil
	}
	return "", errors.New(errors.ErrCodeInvalidUnit, "unknown unit mode %q (want metric or imperial)", s)
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == Imperial {
		return Metric
	}
	return Imperial
}

// FormatLength renders a length in meters. Lengths below one main unit use
// the sub-unit: centimeters in metric, inches in imperial.
func FormatLength(meters float64, mode Mode) string {
	if mode == Imperial {
		feet := meters / metersPerFoot
		if feet < 1 {
			return fmt.Sprintf("%.1f in", meters/metersPerInch)
		}
		return fmt.Sprintf("%.2f ft", feet)
	}
	if meters < 1 {
		return fmt.Sprintf("%.1f cm", meters*100)
	}
	return fmt.Sprintf("%.2f m", meters)
}

// FormatArea renders an area in square meters, always in unit² notation.
func FormatArea(squareMeters float64, mode Mode) string {
	if mode == Imperial {
		return fmt.Sprintf("%.2f ft²", squareMeters/(metersPerFoot*metersPerFoot))
	}
	return fmt.Sprintf("%.2f m²", squareMeters)
}

// FormatPixels renders an uncalibrated length.
func FormatPixels(px float64) string {
	return fmt.Sprintf("%.1f px", px)
}

// FormatPixelArea renders an uncalibrated area.
func FormatPixelArea(px2 float64) string {
	return fmt.Sprintf("%.1f px²", px2)
}
