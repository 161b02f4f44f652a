package export

import (
	"github.com/matzehuels/garmushka/pkg/engine"
	"github.com/matzehuels/garmushka/pkg/errors"
	"github.com/matzehuels/garmushka/pkg/shape"
	"github.com/matzehuels/garmushka/pkg/store"
	"github.com/matzehuels/garmushka/pkg/units"
)

// PayloadVersion is the current payload schema version.
const PayloadVersion = 1

// Payload is the serialized session.
type Payload struct {
	Version          int              `json:"version"`
	SourceLabel      string           `json:"source_label"`
	Width            int              `json:"width"`
	Height           int              `json:"height"`
	UnitMode         units.Mode       `json:"unit_mode"`
	PixelsPerUnit    float64          `json:"pixels_per_unit"`
	IsCalibrated     bool             `json:"is_calibrated"`
	MeasurementTable []store.Row      `json:"measurement_table"`
	Shapes           []shape.Document `json:"shapes"`
	Summary          store.Summary    `json:"area_summary"`
	RasterSnapshot   []byte           `json:"raster_snapshot,omitempty"`
}

// FromEngine captures the engine's current shapes, scale and derived table.
func FromEngine(e *engine.Engine, sourceLabel string) Payload {
	cal := e.Calibration()
	w, h := e.Size()
	return Payload{
		Version:          PayloadVersion,
		SourceLabel:      sourceLabel,
		Width:            w,
		Height:           h,
		UnitMode:         e.UnitMode(),
		PixelsPerUnit:    cal.PixelsPerUnit,
		IsCalibrated:     cal.IsCalibrated(),
		MeasurementTable: e.Rows(),
		Shapes:           shape.EncodeAll(e.Shapes()),
		Summary:          e.Summary(),
	}
}

// Validate checks the authoritative fields.
func (p Payload) Validate() error {
	if p.Version != PayloadVersion {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported payload version %d", p.Version)
	}
	if p.PixelsPerUnit < 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "negative pixels_per_unit %v", p.PixelsPerUnit)
	}
	if p.IsCalibrated != (p.PixelsPerUnit > 0) {
		return errors.New(errors.ErrCodeInvalidFormat, "is_calibrated disagrees with pixels_per_unit")
	}
	if p.UnitMode != units.Metric && p.UnitMode != units.Imperial {
		return errors.New(errors.ErrCodeInvalidFormat, "unknown unit_mode %q", p.UnitMode)
	}
	return nil
}

// Engine rebuilds a live engine from the payload. opts.UnitMode is
// overridden by the payload's mode.
func (p Payload) Engine(opts engine.Options) (*engine.Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	shapes, err := shape.DecodeAll(p.Shapes)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode shapes")
	}
	opts.UnitMode = p.UnitMode
	e := engine.New(p.Width, p.Height, opts)
	if out := e.Load(shapes, p.PixelsPerUnit); !out.Accepted {
		return nil, errors.New(out.Code, "load shapes: %s", out.Reason)
	}
	return e, nil
}
