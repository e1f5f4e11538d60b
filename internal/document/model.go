package document

import (
	"fmt"
	"math"

	"github.com/inamate/planner/internal/geometry"
	"github.com/inamate/planner/internal/sketch"
)

// Element is one shape in a drawing. Elements are values: editing one means
// building a replacement with NewElement and storing it in the same slot.
type Element struct {
	ID   int           `json:"id"`
	Kind geometry.Kind `json:"kind"`
	geometry.Coords

	// Width and Height are |x2-x1| and |y2-y1| for rectangles, zero for segments.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Drawable is derived from Kind and Coords and is never persisted.
	Drawable sketch.Drawable `json:"-"`
}

// NewElement builds an element and its derived fields.
func NewElement(id int, kind geometry.Kind, c geometry.Coords) Element {
	e := Element{
		ID:       id,
		Kind:     kind,
		Coords:   c,
		Drawable: sketch.Generate(kind, c),
	}
	if kind == geometry.Rectangle {
		e.Width = math.Abs(c.X2 - c.X1)
		e.Height = math.Abs(c.Y2 - c.Y1)
	}
	return e
}

func (e Element) ShapeKind() geometry.Kind     { return e.Kind }
func (e Element) ShapeCoords() geometry.Coords { return e.Coords }

// Record returns the persisted form of e.
func (e Element) Record() Record {
	return Record{ID: e.ID, Kind: e.Kind, Coords: e.Coords}
}

// Record is the renderer-agnostic form of an element used for persistence
// and transport: {id, kind, x1, y1, x2, y2}.
type Record struct {
	ID   int           `json:"id"`
	Kind geometry.Kind `json:"kind"`
	geometry.Coords
}

// Element rebuilds the derived fields of r.
func (r Record) Element() Element {
	return NewElement(r.ID, r.Kind, r.Coords)
}

// Validate checks that r can become an element.
func (r Record) Validate() error {
	if r.Kind != geometry.Segment && r.Kind != geometry.Rectangle {
		return fmt.Errorf("element %d: unknown kind %v", r.ID, r.Kind)
	}
	for _, v := range []float64{r.X1, r.Y1, r.X2, r.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("element %d: non-finite coordinate", r.ID)
		}
	}
	return nil
}

// Label returns the size caption drawn inside a rectangle and its anchor
// point, just inside the x1/y2 corner. Segments have no label.
func (e Element) Label() (string, geometry.Point, bool) {
	if e.Kind != geometry.Rectangle {
		return "", geometry.Point{}, false
	}
	return fmt.Sprintf("W: %.2f, H: %.2f", e.Width, e.Height), geometry.Pt(e.X1+5, e.Y2-5), true
}
