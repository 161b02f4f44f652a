package cli

import (
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/garmushka/pkg/shape"
	"github.com/matzehuels/garmushka/pkg/store"
)

func TestPluralize(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 commands"},
		{1, "1 command"},
		{12, "12 commands"},
	}
	for _, tt := range tests {
		if got := pluralize(tt.n, "command"); got != tt.want {
			t.Errorf("pluralize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"two\nlines", 20, "two lines"},
		{"abcdefghij", 5, "abcd…"},
		{"קיר צפוני ארוך", 4, "קיר…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()
	tests := []struct {
		t    time.Time
		want string
	}{
		{now.Add(-10 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-50 * time.Hour), "2d ago"},
		{time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), "Mar 7, 2024"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(tt.t); got != tt.want {
			t.Errorf("formatRelativeTime(%v) = %q, want %q", tt.t, got, tt.want)
		}
	}
}

func TestRenderRows(t *testing.T) {
	if got := renderRows(nil, -1); !strings.Contains(got, "no measurements") {
		t.Errorf("empty table = %q", got)
	}

	rows := []store.Row{
		{ID: "a", Name: "Calibration 1", Type: shape.KindCalibration, Measurement: "2.00 m"},
		{ID: "b", Name: "Room A", Type: shape.KindPolygon, Measurement: "0.36 m²", Notes: "bedroom"},
	}
	got := renderRows(rows, 1)
	for _, want := range []string{"Calibration 1", "Room A", "0.36 m²", "bedroom", iconCursor} {
		if !strings.Contains(got, want) {
			t.Errorf("table missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(renderRows(rows, -1), iconCursor) {
		t.Error("cursor drawn with cursor -1")
	}
}

func TestRenderSummary(t *testing.T) {
	got := renderSummary(store.Summary{
		AreaText:   "0.72 m²",
		LengthText: "2.00 m",
		Groups:     []store.Group{{Label: "Room", Count: 2, Text: "0.72 m²"}},
	})
	for _, want := range []string{"Total area", "0.72 m²", "Total length", "2.00 m", "Room", "(2)"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary missing %q:\n%s", want, got)
		}
	}
}
