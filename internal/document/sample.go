package document

import "github.com/inamate/planner/internal/geometry"

// NewSampleDrawing returns a small ground-floor plan: three rooms, two
// connecting walls and the outer shell. The shell comes last so that the
// rooms inside it are found first by hit-testing.
func NewSampleDrawing() Collection {
	shapes := []struct {
		kind   geometry.Kind
		coords geometry.Coords
	}{
		{geometry.Rectangle, geometry.C(60, 60, 300, 260)},
		{geometry.Rectangle, geometry.C(320, 60, 620, 260)},
		{geometry.Rectangle, geometry.C(60, 280, 620, 420)},
		{geometry.Segment, geometry.C(300, 120, 320, 120)},
		{geometry.Segment, geometry.C(180, 260, 180, 280)},
		{geometry.Rectangle, geometry.C(40, 40, 640, 440)},
	}

	c := Empty()
	for _, s := range shapes {
		c, _ = c.Append(s.kind, s.coords)
	}
	return c
}
