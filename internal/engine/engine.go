package engine

import (
	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/geometry"
)

// Engine owns the open drawing and the pointer interaction state. It is
// driven by one event at a time and is not safe for concurrent use.
type Engine struct {
	elements document.Collection
	state    State

	// Advisory cursor listener, called on idle pointer moves.
	onCursor func(geometry.Cursor)
}

// Option configures an Engine.
type Option func(*Engine)

// WithTool sets the initially active tool.
func WithTool(t Tool) Option {
	return func(e *Engine) {
		e.state.Tool = t
	}
}

// WithCursorFunc registers a listener for hover cursor hints.
func WithCursorFunc(fn func(geometry.Cursor)) Option {
	return func(e *Engine) {
		e.onCursor = fn
	}
}

// New creates an engine with an empty drawing and the segment tool active.
func New(opts ...Option) *Engine {
	e := &Engine{
		elements: document.Empty(),
		state:    State{Mode: Idle, Tool: ToolSegment},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// --- Commands (host → engine) ---

// SetActiveTool switches the tool used by the next press. An in-flight drag
// keeps going with the element it started on.
func (e *Engine) SetActiveTool(t Tool) {
	e.state.Tool = t
}

// OnPointerDown starts an interaction at (x, y).
func (e *Engine) OnPointerDown(x, y float64) {
	if e.state.Mode != Idle {
		return
	}
	p := geometry.Pt(x, y)

	switch e.state.Tool {
	case ToolSelect:
		el, hit, ok := e.elements.HitTest(p)
		if !ok {
			return
		}
		drag := &Drag{
			ElementID: el.ID,
			Anchor:    p.Sub(el.Start()),
			Origin:    el.Coords,
		}
		if hit == geometry.Inside {
			e.state.Mode = Moving
		} else {
			drag.Handle = hit
			// Corner tags name the normalized bounds.
			if el.Kind == geometry.Rectangle {
				drag.Origin = geometry.Normalize(el.Kind, el.Coords)
			}
			e.state.Mode = Resizing
		}
		e.state.Drag = drag

	case ToolSegment, ToolRectangle:
		kind, _ := e.state.Tool.Kind()
		next, el := e.elements.Append(kind, geometry.C(x, y, x, y))
		e.elements = next
		e.state.Mode = Drawing
		e.state.Drag = &Drag{ElementID: el.ID, Origin: el.Coords}

	case ToolDelete:
		el, hit, ok := e.elements.HitTest(p)
		if !ok || hit != geometry.Inside {
			return
		}
		// The hit came from this collection, so the slot exists.
		e.elements, _ = e.elements.Remove(el.ID)
	}
}

// OnPointerMove updates the dragged element, or reports a hover cursor when
// nothing is being dragged.
func (e *Engine) OnPointerMove(x, y float64) {
	p := geometry.Pt(x, y)
	drag := e.state.Drag

	switch e.state.Mode {
	case Idle:
		if e.onCursor != nil {
			e.onCursor(e.CursorAt(x, y))
		}

	case Drawing:
		next := drag.Origin
		next.X2, next.Y2 = p.X, p.Y
		e.replace(drag.ElementID, next)

	case Moving:
		width := drag.Origin.X2 - drag.Origin.X1
		height := drag.Origin.Y2 - drag.Origin.Y1
		x1 := p.X - drag.Anchor.X
		y1 := p.Y - drag.Anchor.Y
		e.replace(drag.ElementID, geometry.C(x1, y1, x1+width, y1+height))

	case Resizing:
		e.replace(drag.ElementID, geometry.RecomputeFromHandle(p, drag.Handle, drag.Origin))
	}
}

// OnPointerUp finishes the interaction. Drawn elements are stored in
// normalized form; moved and resized ones keep their coordinates.
func (e *Engine) OnPointerUp() {
	if e.state.Mode == Idle {
		return
	}

	if e.state.Mode == Drawing {
		id := e.state.Drag.ElementID
		if el, ok := e.elements.At(id); ok {
			e.replace(id, geometry.Normalize(el.Kind, el.Coords))
		}
	}
	e.clearDrag()
}

// CancelDrag abandons an in-flight interaction, leaving elements as they
// are now.
func (e *Engine) CancelDrag() {
	e.clearDrag()
}

// NewDocument swaps in an empty drawing.
func (e *Engine) NewDocument() {
	e.LoadCollection(document.Empty())
}

// LoadDocument replaces the drawing with the given records. Render payloads
// are rebuilt and ids are reassigned from position.
func (e *Engine) LoadDocument(records []document.Record) error {
	c, err := document.FromRecords(records)
	if err != nil {
		return err
	}
	e.LoadCollection(c)
	return nil
}

// LoadCollection replaces the drawing, cancelling any drag first.
func (e *Engine) LoadCollection(c document.Collection) {
	e.clearDrag()
	e.elements = c
}

// --- Queries (engine → host) ---

// Elements returns the current elements for rendering.
func (e *Engine) Elements() []document.Element {
	return e.elements.Elements()
}

// Collection returns the current drawing. It is immutable and stays valid
// after further edits.
func (e *Engine) Collection() document.Collection {
	return e.elements
}

// ExportDocument snapshots the drawing in its persisted form.
func (e *Engine) ExportDocument() []document.Record {
	return e.elements.Records()
}

// State returns a copy of the interaction state.
func (e *Engine) State() State {
	return e.state.clone()
}

// CursorAt returns the cursor the active tool would show at (x, y).
func (e *Engine) CursorAt(x, y float64) geometry.Cursor {
	_, hit, ok := e.elements.HitTest(geometry.Pt(x, y))
	switch e.state.Tool {
	case ToolSelect:
		return geometry.CursorFor(hit)
	case ToolDelete:
		if ok {
			return geometry.CursorPointer
		}
	}
	return geometry.CursorDefault
}

func (e *Engine) replace(id int, c geometry.Coords) {
	next, err := e.elements.Replace(id, c)
	if err != nil {
		// The element is gone; nothing left to drag.
		e.clearDrag()
		return
	}
	e.elements = next
}

func (e *Engine) clearDrag() {
	e.state.Mode = Idle
	e.state.Drag = nil
}
