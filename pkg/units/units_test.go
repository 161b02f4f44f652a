package units

import (
	"math"
	"testing"

	"github.com/matzehuels/garmushka/pkg/errors"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		input   string
		want    Unit
		wantErr bool
	}{
		{"cm", Centimeter, false},
		{"CM", Centimeter, false},
		{" meters ", Meter, false},
		{"feet", Foot, false},
		{"in", Inch, false},
		{"mm", Millimeter, false},
		{"yd", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseUnit(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseUnit(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidUnit) {
				t.Errorf("error code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidUnit)
			}
			if got != tt.want {
				t.Errorf("ParseUnit(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestToMeters(t *testing.T) {
	tests := []struct {
		unit Unit
		v    float64
		want float64
	}{
		{Centimeter, 400, 4},
		{Millimeter, 2500, 2.5},
		{Meter, 3, 3},
		{Foot, 10, 3.048},
		{Inch, 12, 0.3048},
	}
	for _, tt := range tests {
		if got := tt.unit.ToMeters(tt.v); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s.ToMeters(%v) = %v, want %v", tt.unit, tt.v, got, tt.want)
		}
	}
}

func TestFormatLength(t *testing.T) {
	tests := []struct {
		meters float64
		mode   Mode
		want   string
	}{
		{2, Metric, "2.00 m"},
		{1, Metric, "1.00 m"},
		{0.455, Metric, "45.5 cm"},
		{3.048, Imperial, "10.00 ft"},
		{0.254, Imperial, "10.0 in"},
	}
	for _, tt := range tests {
		if got := FormatLength(tt.meters, tt.mode); got != tt.want {
			t.Errorf("FormatLength(%v, %s) = %q, want %q", tt.meters, tt.mode, got, tt.want)
		}
	}
}

func TestFormatArea(t *testing.T) {
	if got := FormatArea(100, Metric); got != "100.00 m²" {
		t.Errorf("FormatArea metric = %q", got)
	}
	if got := FormatArea(0.25, Metric); got != "0.25 m²" {
		t.Errorf("FormatArea small metric = %q", got)
	}
	if got := FormatArea(0.09290304, Imperial); got != "1.00 ft²" {
		t.Errorf("FormatArea imperial = %q", got)
	}
}

func TestParseModeAndToggle(t *testing.T) {
	m, err := ParseMode("")
	if err != nil || m != Metric {
		t.Errorf("ParseMode(\"\") = %v, %v", m, err)
	}
	m, err = ParseMode("Imperial")
	if err != nil || m != Imperial {
		t.Errorf("ParseMode(Imperial) = %v, %v", m, err)
	}
	if _, err := ParseMode("nautical"); err == nil {
		t.Error("ParseMode(nautical) want error")
	}
	if Metric.Toggle() != Imperial || Imperial.Toggle() != Metric {
		t.Error("Toggle does not alternate")
	}
}
