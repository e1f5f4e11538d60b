package geometry

// Matrix2D is a 2D affine transform stored as [a, b, c, d, e, f]:
//
//	| a  c  e |
//	| b  d  f |
//	| 0  0  1 |
type Matrix2D [6]float64

// Identity returns the identity matrix.
func Identity() Matrix2D {
	return Matrix2D{1, 0, 0, 1, 0, 0}
}

// Translate returns a translation matrix.
func Translate(tx, ty float64) Matrix2D {
	return Matrix2D{1, 0, 0, 1, tx, ty}
}

// Scale returns a scale matrix.
func Scale(sx, sy float64) Matrix2D {
	return Matrix2D{sx, 0, 0, sy, 0, 0}
}

// Multiply returns m * other, which applies other first.
func (m Matrix2D) Multiply(other Matrix2D) Matrix2D {
	return Matrix2D{
		m[0]*other[0] + m[2]*other[1],
		m[1]*other[0] + m[3]*other[1],
		m[0]*other[2] + m[2]*other[3],
		m[1]*other[2] + m[3]*other[3],
		m[0]*other[4] + m[2]*other[5] + m[4],
		m[1]*other[4] + m[3]*other[5] + m[5],
	}
}

// Apply transforms a point.
func (m Matrix2D) Apply(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// ApplyCoords transforms both points of c.
func (m Matrix2D) ApplyCoords(c Coords) Coords {
	s, e := m.Apply(c.Start()), m.Apply(c.End())
	return Coords{X1: s.X, Y1: s.Y, X2: e.X, Y2: e.Y}
}

// ScaleFactor returns the uniform scale of m, assuming no skew.
func (m Matrix2D) ScaleFactor() float64 {
	return m[0]
}

// Invert returns the inverse of m, or Identity if m is singular.
func (m Matrix2D) Invert() Matrix2D {
	det := m[0]*m[3] - m[1]*m[2]
	if det == 0 {
		return Identity()
	}

	inv := 1.0 / det
	return Matrix2D{
		m[3] * inv,
		-m[1] * inv,
		-m[2] * inv,
		m[0] * inv,
		(m[2]*m[5] - m[3]*m[4]) * inv,
		(m[1]*m[4] - m[0]*m[5]) * inv,
	}
}

// FitTransform maps content into a width x height canvas, keeping the aspect
// ratio and leaving padding on every side. Content is centered. An empty
// content rect yields a pure translation by the padding.
func FitTransform(content Rect, width, height, padding float64) Matrix2D {
	availW := width - 2*padding
	availH := height - 2*padding
	if (content.Width <= 0 && content.Height <= 0) || availW <= 0 || availH <= 0 {
		return Translate(padding-content.X, padding-content.Y)
	}

	scale := 0.0
	switch {
	case content.Width <= 0:
		scale = availH / content.Height
	case content.Height <= 0:
		scale = availW / content.Width
	default:
		scale = min(availW/content.Width, availH/content.Height)
	}

	offX := padding + (availW-content.Width*scale)/2
	offY := padding + (availH-content.Height*scale)/2
	return Translate(offX, offY).Multiply(Scale(scale, scale)).Multiply(Translate(-content.X, -content.Y))
}
