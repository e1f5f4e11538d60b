// Package export renders drawings to SVG and PNG.
package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
	"github.com/llgcode/draw2d/draw2dimg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/geometry"
	"github.com/inamate/planner/internal/sketch"
)

type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

// Options control the output canvas. With Fit set, the drawing's bounds are
// scaled and centered into the canvas; otherwise world coordinates are used
// as pixels.
type Options struct {
	Width   int
	Height  int
	Padding float64
	Fit     bool
}

func DefaultOptions() Options {
	return Options{Width: 800, Height: 600, Padding: 20}
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid canvas size %dx%d", o.Width, o.Height)
	}
	if o.Width > 8192 || o.Height > 8192 {
		return fmt.Errorf("canvas size %dx%d exceeds 8192", o.Width, o.Height)
	}
	return nil
}

// transform maps world coordinates into canvas pixels.
func (o Options) transform(c document.Collection) geometry.Matrix2D {
	if !o.Fit {
		return geometry.Identity()
	}
	bounds, ok := c.Bounds()
	if !ok {
		return geometry.Identity()
	}
	return geometry.FitTransform(bounds, float64(o.Width), float64(o.Height), o.Padding)
}

type label struct {
	text string
	at   geometry.Point
}

func labelFor(el document.Element, m geometry.Matrix2D) (label, bool) {
	text, at, ok := el.Label()
	if !ok {
		return label{}, false
	}
	return label{text: text, at: m.Apply(at)}, true
}

// SVG writes the drawing as an SVG document.
func SVG(w io.Writer, c document.Collection, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	m := opts.transform(c)

	canvas := svg.New(w)
	canvas.Start(opts.Width, opts.Height)
	canvas.Rect(0, 0, opts.Width, opts.Height, "fill:#ffffff")
	canvas.Gid("elements")
	for _, el := range c.Elements() {
		d := el.Drawable.Transform(m)
		canvas.Path(d.SVGPath(), strokeStyle(d.Options))
		if l, ok := labelFor(el, m); ok {
			canvas.Text(round(l.at.X), round(l.at.Y), l.text, "font-family:monospace;font-size:12px;fill:#000000")
		}
	}
	canvas.Gend()
	canvas.End()
	return nil
}

// Image rasterizes the drawing onto a white RGBA canvas.
func Image(c document.Collection, opts Options) (*image.RGBA, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	m := opts.transform(c)

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	gc := draw2dimg.NewGraphicContext(img)
	for _, el := range c.Elements() {
		d := el.Drawable.Transform(m)
		gc.SetStrokeColor(parseColor(d.Options.Stroke))
		gc.SetLineWidth(d.Options.StrokeWidth)
		for _, op := range d.Ops {
			switch op.Verb {
			case sketch.MoveTo:
				gc.MoveTo(op.Data[0], op.Data[1])
			case sketch.LineTo:
				gc.LineTo(op.Data[0], op.Data[1])
			case sketch.CurveTo:
				gc.CubicCurveTo(op.Data[0], op.Data[1], op.Data[2], op.Data[3], op.Data[4], op.Data[5])
			}
		}
		gc.Stroke()
	}

	text := &font.Drawer{Dst: img, Src: image.Black, Face: basicfont.Face7x13}
	for _, el := range c.Elements() {
		if l, ok := labelFor(el, m); ok {
			text.Dot = fixed.P(round(l.at.X), round(l.at.Y))
			text.DrawString(l.text)
		}
	}
	return img, nil
}

// PNG writes the rasterized drawing as a PNG image.
func PNG(w io.Writer, c document.Collection, opts Options) error {
	img, err := Image(c, opts)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

// Write renders c in the given format.
func Write(w io.Writer, format Format, c document.Collection, opts Options) error {
	switch format {
	case FormatSVG:
		return SVG(w, c, opts)
	case FormatPNG:
		return PNG(w, c, opts)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

func strokeStyle(o sketch.Options) string {
	return fmt.Sprintf("fill:none;stroke:%s;stroke-width:%s", o.Stroke, strconv.FormatFloat(o.StrokeWidth, 'f', -1, 64))
}

// parseColor reads #rrggbb, falling back to black.
func parseColor(hex string) color.Color {
	if len(hex) != 7 || hex[0] != '#' {
		return color.Black
	}
	v, err := strconv.ParseUint(hex[1:], 16, 32)
	if err != nil {
		return color.Black
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

func round(v float64) int {
	return int(math.Round(v))
}
