package geometry

import (
	"fmt"
	"math"
)

const (
	// HandleTolerance is the radius around a corner or endpoint that grabs it.
	HandleTolerance = 5.0
	// LineTolerance is the allowed slack in the segment collinearity test.
	LineTolerance = 1.0
)

// Kind is the closed set of element shapes.
type Kind int

const (
	Segment Kind = iota + 1
	Rectangle
)

func (k Kind) String() string {
	switch k {
	case Segment:
		return "segment"
	case Rectangle:
		return "rectangle"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind parses the text form produced by String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "segment":
		return Segment, nil
	case "rectangle":
		return Rectangle, nil
	default:
		return 0, fmt.Errorf("unknown element kind %q", s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if k != Segment && k != Rectangle {
		return nil, fmt.Errorf("unknown element kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Hit classifies where a point falls on an element. The zero value is Miss.
type Hit int

const (
	Miss Hit = iota
	Inside
	TopLeft
	TopRight
	BottomLeft
	BottomRight
	Start
	End
)

var hitNames = [...]string{
	Miss:        "",
	Inside:      "inside",
	TopLeft:     "top-left",
	TopRight:    "top-right",
	BottomLeft:  "bottom-left",
	BottomRight: "bottom-right",
	Start:       "start",
	End:         "end",
}

func (h Hit) String() string {
	if h < 0 || int(h) >= len(hitNames) {
		return fmt.Sprintf("Hit(%d)", int(h))
	}
	return hitNames[h]
}

// IsHandle reports whether h names a corner or endpoint.
func (h Hit) IsHandle() bool {
	return h >= TopLeft && h <= End
}

// ClassifyHit reports which part of the element, if any, lies under p.
// Corner and endpoint handles win over the body.
func ClassifyHit(p Point, kind Kind, c Coords) Hit {
	switch kind {
	case Rectangle:
		b := c.Bounds()
		minX, minY := b.X, b.Y
		maxX, maxY := b.X+b.Width, b.Y+b.Height
		corners := [...]struct {
			at  Point
			hit Hit
		}{
			{Pt(minX, minY), TopLeft},
			{Pt(maxX, minY), TopRight},
			{Pt(minX, maxY), BottomLeft},
			{Pt(maxX, maxY), BottomRight},
		}
		for _, corner := range corners {
			if nearPoint(p, corner.at) {
				return corner.hit
			}
		}
		if b.Contains(p.X, p.Y) {
			return Inside
		}
		return Miss

	case Segment:
		a, b := c.Start(), c.End()
		if nearPoint(p, a) {
			return Start
		}
		if nearPoint(p, b) {
			return End
		}
		offset := a.Distance(b) - (a.Distance(p) + p.Distance(b))
		if math.Abs(offset) < LineTolerance {
			return Inside
		}
		return Miss

	default:
		panic(fmt.Sprintf("geometry: classify unknown kind %v", kind))
	}
}

func nearPoint(p, q Point) bool {
	return p.Distance(q) < HandleTolerance
}

// Shape is anything FindTopmostHit can test.
type Shape interface {
	ShapeKind() Kind
	ShapeCoords() Coords
}

// FindTopmostHit returns the index and classification of the first shape
// under p. Slice order decides overlaps: earlier shapes win, regardless of
// which one is nearer.
func FindTopmostHit[S Shape](p Point, shapes []S) (int, Hit, bool) {
	for i, s := range shapes {
		if hit := ClassifyHit(p, s.ShapeKind(), s.ShapeCoords()); hit != Miss {
			return i, hit, true
		}
	}
	return -1, Miss, false
}

// Normalize returns the canonical ordering of c. Rectangles become
// (minX, minY, maxX, maxY); segments run left to right, then top to bottom.
func Normalize(kind Kind, c Coords) Coords {
	switch kind {
	case Rectangle:
		return Coords{
			X1: min(c.X1, c.X2),
			Y1: min(c.Y1, c.Y2),
			X2: max(c.X1, c.X2),
			Y2: max(c.Y1, c.Y2),
		}
	case Segment:
		if c.X1 < c.X2 || (c.X1 == c.X2 && c.Y1 < c.Y2) {
			return c
		}
		return Coords{X1: c.X2, Y1: c.Y2, X2: c.X1, Y2: c.Y1}
	default:
		panic(fmt.Sprintf("geometry: normalize unknown kind %v", kind))
	}
}

// RecomputeFromHandle moves the grabbed handle of prior to p. Passing a Hit
// that is not a handle is a programming error and panics.
func RecomputeFromHandle(p Point, handle Hit, prior Coords) Coords {
	next := prior
	switch handle {
	case TopLeft, Start:
		next.X1, next.Y1 = p.X, p.Y
	case TopRight:
		next.X2, next.Y1 = p.X, p.Y
	case BottomLeft:
		next.X1, next.Y2 = p.X, p.Y
	case BottomRight, End:
		next.X2, next.Y2 = p.X, p.Y
	default:
		panic(fmt.Sprintf("geometry: resize from non-handle %v", handle))
	}
	return next
}
