package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/matzehuels/garmushka/pkg/calibration"
	"github.com/matzehuels/garmushka/pkg/engine"
	"github.com/matzehuels/garmushka/pkg/geometry"
	"github.com/matzehuels/garmushka/pkg/shape"
	"github.com/matzehuels/garmushka/pkg/store"
	"github.com/matzehuels/garmushka/pkg/units"
	"github.com/matzehuels/garmushka/pkg/view"
)

// Scene is everything the raster renderer draws.
type Scene struct {
	// Bitmap is the measured image; nil draws a blank sheet of Width x Height.
	Bitmap      image.Image
	Width       int
	Height      int
	Shapes      []shape.Shape
	Calibration calibration.State
	Mode        units.Mode
	View        view.Transform
	Selected    string
	// Drawing holds the points of a shape still being drawn, in model space.
	Drawing []geometry.Point
}

// SceneFromEngine captures the engine's current view for rendering.
func SceneFromEngine(e *engine.Engine, bitmap image.Image) Scene {
	st := e.Status()
	return Scene{
		Bitmap:      bitmap,
		Width:       st.Width,
		Height:      st.Height,
		Shapes:      e.Shapes(),
		Calibration: e.Calibration(),
		Mode:        st.UnitMode,
		View:        st.View,
		Selected:    st.Selected,
		Drawing:     st.Drawing,
	}
}

// RasterOptions controls the snapshot.
type RasterOptions struct {
	// Width and Height are the output size; zero uses the bitmap size
	// under the view scale.
	Width, Height int
	// LineWidth is the stroke width in output pixels.
	LineWidth float64
	// Labels draws each shape's name and measurement.
	Labels bool
}

var (
	canvasColor  = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	drawingColor = color.RGBA{0xf5, 0x9e, 0x0b, 0xff}
	labelColor   = color.RGBA{0x11, 0x18, 0x27, 0xff}
	labelBack    = color.RGBA{0xff, 0xff, 0xff, 0xd0}
)

// MaxRenderPixels bounds the output canvas. Larger requests are rendered
// scaled down to fit.
const MaxRenderPixels = 1 << 24

// Render draws the scene through its view transform.
func Render(sc Scene, opts RasterOptions) *image.RGBA {
	fw, fh := float64(opts.Width), float64(opts.Height)
	if opts.Width <= 0 || opts.Height <= 0 {
		fw = math.Ceil(float64(sc.Width) * sc.View.Scale)
		fh = math.Ceil(float64(sc.Height) * sc.View.Scale)
	}
	fw, fh = math.Max(fw, 1), math.Max(fh, 1)
	if px := fw * fh; px > MaxRenderPixels {
		k := math.Sqrt(MaxRenderPixels / px)
		fh = math.Max(math.Floor(fh*k), 1)
		fw = math.Max(math.Min(math.Floor(fw*k), math.Floor(MaxRenderPixels/fh)), 1)
		sc.View.Scale *= k
		sc.View.Offset = sc.View.Offset.Scale(k)
	}
	w, h := int(fw), int(fh)
	if opts.LineWidth <= 0 {
		opts.LineWidth = 2
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(canvasColor), image.Point{}, xdraw.Src)

	r := &rasterizer{dst: dst, ras: vector.NewRasterizer(w, h), view: sc.View}
	if sc.Bitmap != nil {
		xdraw.BiLinear.Transform(dst, sc.View.Aff3(), sc.Bitmap, sc.Bitmap.Bounds(), xdraw.Over, nil)
	} else {
		r.fill(corners(sc.Width, sc.Height), color.White)
	}

	for _, sh := range sc.Shapes {
		c := parseHex(sh.Meta().Color)
		pts := sh.Points()
		width := opts.LineWidth
		if sh.Meta().ID == sc.Selected {
			width *= 2
		}
		if sh.Kind() == shape.KindPolygon {
			r.fill(pts, withAlpha(c, 0x40))
			r.stroke(append(pts, pts[0]), width, c)
		} else {
			r.stroke(pts, width, c)
		}
		for _, p := range pts {
			r.dot(p, width*1.5, c)
		}
	}
	if len(sc.Drawing) > 0 {
		r.stroke(sc.Drawing, opts.LineWidth, drawingColor)
		for _, p := range sc.Drawing {
			r.dot(p, opts.LineWidth*1.5, drawingColor)
		}
	}

	if opts.Labels {
		for _, sh := range sc.Shapes {
			text := store.FormatMeasurement(sh, sc.Calibration, sc.Mode)
			if name := sh.Meta().Name; printable(name) {
				text = name + ": " + text
			}
			r.label(shape.LabelAnchor(sh), text)
		}
	}
	return dst
}

// WritePNG encodes img as PNG.
func WritePNG(img image.Image, w io.Writer) error {
	return png.Encode(w, img)
}

type rasterizer struct {
	dst  *image.RGBA
	ras  *vector.Rasterizer
	view view.Transform
}

func (r *rasterizer) screen(p geometry.Point) (float32, float32) {
	s := r.view.ModelToScreen(p)
	return float32(s.X), float32(s.Y)
}

// fill paints the closed ring pts (model space).
func (r *rasterizer) fill(pts []geometry.Point, c color.Color) {
	if len(pts) < 3 {
		return
	}
	b := r.dst.Bounds()
	r.ras.Reset(b.Dx(), b.Dy())
	r.ras.MoveTo(r.screen(pts[0]))
	for _, p := range pts[1:] {
		r.ras.LineTo(r.screen(p))
	}
	r.ras.ClosePath()
	r.ras.Draw(r.dst, b, image.NewUniform(c), image.Point{})
}

// stroke paints each segment of pts as a quad of the given screen width.
func (r *rasterizer) stroke(pts []geometry.Point, width float64, c color.Color) {
	b := r.dst.Bounds()
	src := image.NewUniform(c)
	for i := 1; i < len(pts); i++ {
		a, z := r.view.ModelToScreen(pts[i-1]), r.view.ModelToScreen(pts[i])
		d := geometry.Distance(a, z)
		if d == 0 {
			continue
		}
		n := geometry.Pt(-(z.Y-a.Y)/d, (z.X-a.X)/d).Scale(width / 2)
		quad := []geometry.Point{a.Add(n), z.Add(n), z.Sub(n), a.Sub(n)}
		r.ras.Reset(b.Dx(), b.Dy())
		r.ras.MoveTo(float32(quad[0].X), float32(quad[0].Y))
		for _, q := range quad[1:] {
			r.ras.LineTo(float32(q.X), float32(q.Y))
		}
		r.ras.ClosePath()
		r.ras.Draw(r.dst, b, src, image.Point{})
	}
}

// dot paints a square vertex marker centred on p.
func (r *rasterizer) dot(p geometry.Point, size float64, c color.Color) {
	s := r.view.ModelToScreen(p)
	h := size / 2
	rect := image.Rect(int(s.X-h), int(s.Y-h), int(math.Ceil(s.X+h)), int(math.Ceil(s.Y+h)))
	xdraw.Draw(r.dst, rect.Intersect(r.dst.Bounds()), image.NewUniform(c), image.Point{}, xdraw.Over)
}

// label draws text centred on the model point p over a light backing box.
func (r *rasterizer) label(p geometry.Point, text string) {
	face := basicfont.Face7x13
	s := r.view.ModelToScreen(p)
	width := font.MeasureString(face, text).Ceil()
	x, y := int(s.X)-width/2, int(s.Y)
	box := image.Rect(x-3, y-face.Ascent-2, x+width+3, y+face.Descent+2)
	xdraw.Draw(r.dst, box.Intersect(r.dst.Bounds()), image.NewUniform(labelBack), image.Point{}, xdraw.Over)

	d := &font.Drawer{
		Dst:  r.dst,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

func corners(w, h int) []geometry.Point {
	fw, fh := float64(w), float64(h)
	return []geometry.Point{geometry.Pt(0, 0), geometry.Pt(fw, 0), geometry.Pt(fw, fh), geometry.Pt(0, fh)}
}

// printable reports whether basicfont can draw s.
func printable(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return false
		}
	}
	return s != ""
}

// parseHex parses #rgb or #rrggbb; anything else is black.
func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || len(s) != 6 {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// withAlpha returns c premultiplied to alpha a.
func withAlpha(c color.RGBA, a uint8) color.RGBA {
	f := func(v uint8) uint8 { return uint8(uint16(v) * uint16(a) / 0xff) }
	return color.RGBA{R: f(c.R), G: f(c.G), B: f(c.B), A: a}
}

// AttachSnapshot stores img as the payload's PNG raster snapshot.
func (p *Payload) AttachSnapshot(img image.Image) error {
	var buf bytes.Buffer
	if err := WritePNG(img, &buf); err != nil {
		return err
	}
	p.RasterSnapshot = buf.Bytes()
	return nil
}

// Snapshot renders the whole sheet fitted into a width x height image with
// labels, regardless of the scene's current pan and zoom.
func Snapshot(sc Scene, width, height int) *image.RGBA {
	return Render(snapshotScene(sc, width, height))
}

func snapshotScene(sc Scene, width, height int) (Scene, RasterOptions) {
	sc.View = view.New(1e-6, 1e6).Fit(float64(sc.Width), float64(sc.Height), float64(width), float64(height))
	sc.Drawing = nil
	return sc, RasterOptions{Width: width, Height: height, Labels: true}
}
