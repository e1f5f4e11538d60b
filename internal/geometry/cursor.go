package geometry

// Cursor is a presentation hint for the host's pointer style.
type Cursor string

const (
	CursorDefault  Cursor = "default"
	CursorPointer  Cursor = "pointer"
	CursorMove     Cursor = "move"
	CursorResizeNW Cursor = "resize-nw"
	CursorResizeNE Cursor = "resize-ne"
)

// CursorFor maps a hit to the cursor a selection tool should show.
func CursorFor(h Hit) Cursor {
	switch h {
	case Inside:
		return CursorMove
	case TopLeft, BottomRight, Start, End:
		return CursorResizeNW
	case TopRight, BottomLeft:
		return CursorResizeNE
	default:
		return CursorDefault
	}
}
