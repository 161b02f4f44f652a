package engine

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/garmushka/pkg/config"
	"github.com/matzehuels/garmushka/pkg/history"
	"github.com/matzehuels/garmushka/pkg/units"
	"github.com/matzehuels/garmushka/pkg/view"
)

// Options configures an Engine. Zero fields take defaults in
// ValidateAndSetDefaults.
type Options struct {
	// CloseThreshold is the polygon auto-close distance in screen pixels.
	CloseThreshold float64
	// DoubleClickRadius is the screen distance under which the second click
	// of a double-click is a duplicate point.
	DoubleClickRadius float64
	MinZoom           float64
	MaxZoom           float64
	// ZoomStep is the scale factor per wheel notch.
	ZoomStep     float64
	HistoryDepth int
	UnitMode     units.Mode
	Logger       *log.Logger
}

// ValidateAndSetDefaults fills zero values with defaults.
func (o *Options) ValidateAndSetDefaults() {
	if o.CloseThreshold <= 0 {
		o.CloseThreshold = config.DefaultCloseThreshold
	}
	if o.DoubleClickRadius <= 0 {
		o.DoubleClickRadius = config.DefaultDoubleClickRadius
	}
	if o.MinZoom <= 0 || o.MaxZoom <= 0 || o.MinZoom > o.MaxZoom {
		o.MinZoom, o.MaxZoom = view.DefaultMinScale, view.DefaultMaxScale
	}
	if o.ZoomStep <= 1 {
		o.ZoomStep = config.DefaultZoomStep
	}
	if o.HistoryDepth <= 0 {
		o.HistoryDepth = history.DefaultCapacity
	}
	if o.UnitMode == "" {
		o.UnitMode = units.Metric
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// OptionsFromConfig maps the [engine] config section to Options.
func OptionsFromConfig(c config.Engine, logger *log.Logger) Options {
	mode, err := units.ParseMode(c.UnitMode)
	if err != nil {
		mode = units.Metric
	}
	return Options{
		CloseThreshold:    c.CloseThreshold,
		DoubleClickRadius: c.DoubleClickRadius,
		MinZoom:           c.MinZoom,
		MaxZoom:           c.MaxZoom,
		ZoomStep:          c.ZoomStep,
		HistoryDepth:      c.HistoryDepth,
		UnitMode:          mode,
		Logger:            logger,
	}
}
