package calibration

import (
	"math"
	"testing"

	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/geometry"
	"github.com/matzehuels/garmushka/pkg/units"
)

func TestCommitReferenceSegment(t *testing.T) {
	// 200 px declared as 400 cm.
	s, err := Commit(State{}, geometry.Pt(0, 0), geometry.Pt(200, 0), 400, units.Centimeter)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if math.Abs(s.PixelsPerUnit-50) > 1e-9 {
		t.Errorf("PixelsPerUnit = %v, want 50", s.PixelsPerUnit)
	}
	if got := s.FormatLength(100, units.Metric); got != "2.00 m" {
		t.Errorf("FormatLength(100) = %q, want %q", got, "2.00 m")
	}
}

func TestCommitFormula(t *testing.T) {
	p1, p2 := geometry.Pt(10, 20), geometry.Pt(130, 180)
	for _, cm := range []float64{1, 37.5, 100, 250, 12000} {
		s, err := Commit(State{}, p1, p2, cm, units.Centimeter)
		if err != nil {
			t.Fatalf("Commit(%v cm) error = %v", cm, err)
		}
		want := geometry.Distance(p1, p2) / (cm / 100)
		if math.Abs(s.PixelsPerUnit-want) > 1e-9 {
			t.Errorf("Commit(%v cm) = %v, want %v", cm, s.PixelsPerUnit, want)
		}
	}
}

func TestCommitRejections(t *testing.T) {
	prev := State{PixelsPerUnit: 7}
	tests := []struct {
		name   string
		p2     geometry.Point
		length float64
		unit   units.Unit
		code   errors.Code
	}{
		{"zero length", geometry.Pt(100, 0), 0, units.Meter, errors.ErrCodeInvalidCalibration},
		{"negative length", geometry.Pt(100, 0), -3, units.Meter, errors.ErrCodeInvalidCalibration},
		{"NaN length", geometry.Pt(100, 0), math.NaN(), units.Meter, errors.ErrCodeInvalidCalibration},
		{"Inf length", geometry.Pt(100, 0), math.Inf(1), units.Meter, errors.ErrCodeInvalidCalibration},
		{"bad unit", geometry.Pt(100, 0), 1, units.Unit("yd"), errors.ErrCodeInvalidUnit},
		{"zero segment", geometry.Pt(0, 0), 1, units.Meter, errors.ErrCodeDegenerateGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Commit(prev, geometry.Pt(0, 0), tt.p2, tt.length, tt.unit)
			if err == nil {
				t.Fatal("Commit() error = nil, want rejection")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), tt.code)
			}
			if got != prev {
				t.Errorf("state = %v, want unchanged %v", got, prev)
			}
		})
	}
}

func TestUncalibratedFormatting(t *testing.T) {
	var s State
	if s.IsCalibrated() {
		t.Fatal("zero State reports calibrated")
	}
	if got := s.FormatLength(123, units.Metric); got != "123.0 px" {
		t.Errorf("FormatLength = %q", got)
	}
	if got := s.FormatArea(10000, units.Imperial); got != "10000.0 px²" {
		t.Errorf("FormatArea = %q", got)
	}
}

func TestRecalibrationRescalesMonotonically(t *testing.T) {
	const px = 300.0
	prevLen := math.Inf(1)
	for _, ppu := range []float64{10, 20, 40, 80} {
		s := State{PixelsPerUnit: ppu}
		got := s.Length(px)
		if got >= prevLen {
			t.Errorf("Length at ppu %v = %v, not below previous %v", ppu, got, prevLen)
		}
		prevLen = got
	}
}
