// Package sketch generates the hand-drawn stroke geometry stored on each
// element. Output is a pure function of an element's kind and coordinates:
// the jitter PRNG is seeded from them, so regenerating after a load yields
// the same strokes that were on screen before the save.
package sketch

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/inamate/planner/internal/geometry"
)

// Verb is a Canvas2D path verb.
type Verb string

const (
	MoveTo  Verb = "M"
	LineTo  Verb = "L"
	CurveTo Verb = "C"
)

// Op is a single path command. It serializes in the draw-command format the
// canvas host understands: ["M", x, y] or ["C", x1, y1, x2, y2, x, y].
type Op struct {
	Verb Verb
	Data []float64
}

func (o Op) MarshalJSON() ([]byte, error) {
	out := make([]any, 0, len(o.Data)+1)
	out = append(out, string(o.Verb))
	for _, v := range o.Data {
		out = append(out, v)
	}
	return json.Marshal(out)
}

// Options tune the generated strokes.
type Options struct {
	Roughness   float64 `json:"roughness"`
	Bowing      float64 `json:"bowing"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// DefaultOptions are used for segments. Rectangles halve the roughness.
var DefaultOptions = Options{
	Roughness:   1,
	Bowing:      1,
	Stroke:      "#000000",
	StrokeWidth: 1,
}

const maxRandomnessOffset = 2.0

// Drawable is the precomputed render payload of one element.
type Drawable struct {
	Kind    geometry.Kind `json:"kind"`
	Ops     []Op          `json:"ops"`
	Options Options       `json:"options"`
}

// Generate builds the drawable for an element of the given kind.
func Generate(kind geometry.Kind, c geometry.Coords) Drawable {
	opts := DefaultOptions
	g := newGenerator(kind, c)

	var ops []Op
	switch kind {
	case geometry.Segment:
		ops = g.doubleLine(c.Start(), c.End(), opts)
	case geometry.Rectangle:
		opts.Roughness = 0.5
		corners := []geometry.Point{
			geometry.Pt(c.X1, c.Y1),
			geometry.Pt(c.X2, c.Y1),
			geometry.Pt(c.X2, c.Y2),
			geometry.Pt(c.X1, c.Y2),
		}
		for i := range corners {
			ops = append(ops, g.doubleLine(corners[i], corners[(i+1)%len(corners)], opts)...)
		}
	default:
		panic(fmt.Sprintf("sketch: unknown kind %v", kind))
	}

	return Drawable{Kind: kind, Ops: ops, Options: opts}
}

type generator struct {
	rnd *rand.Rand
}

func newGenerator(kind geometry.Kind, c geometry.Coords) *generator {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(kind))
	h.Write(buf[:])
	for _, v := range []float64{c.X1, c.Y1, c.X2, c.Y2} {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	seed := h.Sum64()
	return &generator{rnd: rand.New(rand.NewPCG(seed, seed>>1|1))}
}

// offset returns a random value in [-span, span).
func (g *generator) offset(span float64) float64 {
	return span * (g.rnd.Float64()*2 - 1)
}

// doubleLine draws a to b twice, the second pass with half the jitter.
func (g *generator) doubleLine(a, b geometry.Point, opts Options) []Op {
	ops := g.line(a, b, opts, false)
	return append(ops, g.line(a, b, opts, true)...)
}

func (g *generator) line(a, b geometry.Point, opts Options, overlay bool) []Op {
	length := a.Distance(b)
	maxOffset := min(length/10, maxRandomnessOffset) * opts.Roughness
	if overlay {
		maxOffset /= 2
	}

	diverge := 0.2 + g.rnd.Float64()*0.2
	midDispX := opts.Bowing * maxOffset * (b.Y - a.Y) / 200
	midDispY := opts.Bowing * maxOffset * (a.X - b.X) / 200
	midDispX += g.offset(midDispX)
	midDispY += g.offset(midDispY)

	return []Op{
		{Verb: MoveTo, Data: []float64{
			a.X + g.offset(maxOffset),
			a.Y + g.offset(maxOffset),
		}},
		{Verb: CurveTo, Data: []float64{
			midDispX + a.X + (b.X-a.X)*diverge + g.offset(maxOffset),
			midDispY + a.Y + (b.Y-a.Y)*diverge + g.offset(maxOffset),
			midDispX + a.X + 2*(b.X-a.X)*diverge + g.offset(maxOffset),
			midDispY + a.Y + 2*(b.Y-a.Y)*diverge + g.offset(maxOffset),
			b.X + g.offset(maxOffset),
			b.Y + g.offset(maxOffset),
		}},
	}
}

// Transform returns a copy of d with every point mapped through m.
func (d Drawable) Transform(m geometry.Matrix2D) Drawable {
	out := Drawable{Kind: d.Kind, Options: d.Options, Ops: make([]Op, len(d.Ops))}
	for i, op := range d.Ops {
		data := make([]float64, len(op.Data))
		for j := 0; j+1 < len(op.Data); j += 2 {
			p := m.Apply(geometry.Pt(op.Data[j], op.Data[j+1]))
			data[j], data[j+1] = p.X, p.Y
		}
		out.Ops[i] = Op{Verb: op.Verb, Data: data}
	}
	return out
}

// SVGPath renders the ops as an SVG path "d" attribute.
func (d Drawable) SVGPath() string {
	var sb strings.Builder
	for i, op := range d.Ops {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(string(op.Verb))
		for _, v := range op.Data {
			sb.WriteByte(' ')
			sb.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
		}
	}
	return sb.String()
}
