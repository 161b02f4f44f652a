package shape

import "fmt"

// Palette holds the default color per kind.
var Palette = map[Kind]string{
	KindCalibration: "#ef4444",
	KindPolyline:    "#3b82f6",
	KindPolygon:     "#22c55e",
}

var labels = map[Kind]string{
	KindCalibration: "Calibration",
	KindPolyline:    "Distance",
	KindPolygon:     "Area",
}

// Label returns the human-readable name of k.
func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

// DefaultName names the n-th shape of kind k, counting from 1.
func DefaultName(k Kind, n int) string {
	return fmt.Sprintf("%s %d", k.Label(), n)
}

// DefaultMeta returns metadata for a new shape of kind k given how many
// shapes of that kind already exist.
func DefaultMeta(k Kind, existing int) Meta {
	return Meta{
		ID:    NewID(),
		Name:  DefaultName(k, existing+1),
		Color: Palette[k],
	}
}
