package engine

import (
	"encoding/json"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/geometry"
	"github.com/inamate/planner/internal/sketch"
)

// DrawCommand is a single drawing operation for the canvas host.
type DrawCommand struct {
	Op          string      `json:"op"` // "path" or "label"
	ElementID   int         `json:"elementId"`
	Path        []sketch.Op `json:"path,omitempty"`
	Stroke      string      `json:"stroke,omitempty"`
	StrokeWidth float64     `json:"strokeWidth,omitempty"`
	Text        string      `json:"text,omitempty"`
	X           float64     `json:"x,omitempty"`
	Y           float64     `json:"y,omitempty"`
	Active      bool        `json:"active,omitempty"` // element is being dragged
}

// CompileDrawCommands turns elements into a draw command buffer in painter's
// order. active is the id of the dragged element, or -1.
func CompileDrawCommands(elements []document.Element, active int) []DrawCommand {
	commands := make([]DrawCommand, 0, len(elements))
	for _, el := range elements {
		commands = append(commands, DrawCommand{
			Op:          "path",
			ElementID:   el.ID,
			Path:        el.Drawable.Ops,
			Stroke:      el.Drawable.Options.Stroke,
			StrokeWidth: el.Drawable.Options.StrokeWidth,
			Active:      el.ID == active,
		})
		if text, at, ok := el.Label(); ok {
			commands = append(commands, DrawCommand{
				Op:        "label",
				ElementID: el.ID,
				Text:      text,
				X:         at.X,
				Y:         at.Y,
			})
		}
	}
	return commands
}

// Render returns the draw commands for the current drawing as JSON.
func (e *Engine) Render() string {
	active := -1
	if e.state.Drag != nil {
		active = e.state.Drag.ElementID
	}
	data, err := json.Marshal(CompileDrawCommands(e.elements.Elements(), active))
	if err != nil {
		return "[]"
	}
	return string(data)
}

// HitTestResult describes what lies under a point.
type HitTestResult struct {
	ElementID int             `json:"elementId"`
	Hit       string          `json:"hit"`
	Cursor    geometry.Cursor `json:"cursor"`
}

// HitTest returns the topmost element under (x, y) as JSON, or "null".
func (e *Engine) HitTest(x, y float64) string {
	el, hit, ok := e.elements.HitTest(geometry.Pt(x, y))
	if !ok {
		return "null"
	}
	data, _ := json.Marshal(HitTestResult{
		ElementID: el.ID,
		Hit:       hit.String(),
		Cursor:    e.CursorAt(x, y),
	})
	return string(data)
}

// GetState returns the interaction state as JSON.
func (e *Engine) GetState() string {
	data, err := json.Marshal(e.State())
	if err != nil {
		return "{}"
	}
	return string(data)
}

// GetDocument returns the exported records as JSON.
func (e *Engine) GetDocument() string {
	data, err := json.Marshal(e.ExportDocument())
	if err != nil {
		return "[]"
	}
	return string(data)
}

// LoadDocumentJSON parses a JSON array of records and loads it.
func (e *Engine) LoadDocumentJSON(data string) error {
	var records []document.Record
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return err
	}
	return e.LoadDocument(records)
}
