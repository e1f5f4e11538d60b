package geometry

import "math"

// Point is a position in the host surface's pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt is shorthand for Point{x, y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Distance returns the Euclidean distance between p and q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Coords holds an element's two defining points. For a segment they are the
// start and end of the drawn stroke; for a rectangle two opposite corners,
// not necessarily in min/max order.
type Coords struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// C builds Coords from the four values in x1, y1, x2, y2 order.
func C(x1, y1, x2, y2 float64) Coords {
	return Coords{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Start returns (x1, y1).
func (c Coords) Start() Point { return Point{X: c.X1, Y: c.Y1} }

// End returns (x2, y2).
func (c Coords) End() Point { return Point{X: c.X2, Y: c.Y2} }

// Translate moves both points by d.
func (c Coords) Translate(d Point) Coords {
	return Coords{X1: c.X1 + d.X, Y1: c.Y1 + d.Y, X2: c.X2 + d.X, Y2: c.Y2 + d.Y}
}

// Bounds returns the axis-aligned box spanned by the two points.
func (c Coords) Bounds() Rect {
	minX, maxX := min(c.X1, c.X2), max(c.X1, c.X2)
	minY, maxY := min(c.Y1, c.Y2), max(c.Y1, c.Y2)
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Rect represents an axis-aligned bounding box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether (x, y) lies in the closed rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Union returns the smallest rect containing both rects. Degenerate rects
// (a horizontal segment's bounds, say) still contribute their extent.
func (r Rect) Union(other Rect) Rect {
	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}
