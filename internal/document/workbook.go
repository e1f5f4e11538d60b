package document

import (
	"encoding/json"
	"fmt"
)

// Workbook is the ordered set of drawings that make up one plan. The shell
// shows each drawing as a tab; only one is open in the engine at a time.
type Workbook struct {
	drawings []Collection
}

// NewWorkbook returns a workbook holding a single empty drawing.
func NewWorkbook() *Workbook {
	return &Workbook{drawings: []Collection{Empty()}}
}

// Len returns the number of drawings.
func (w *Workbook) Len() int {
	return len(w.drawings)
}

// Add appends an empty drawing and returns its index.
func (w *Workbook) Add() int {
	w.drawings = append(w.drawings, Empty())
	return len(w.drawings) - 1
}

// Drawing returns drawing i.
func (w *Workbook) Drawing(i int) (Collection, bool) {
	if i < 0 || i >= len(w.drawings) {
		return Collection{}, false
	}
	return w.drawings[i], true
}

// SetDrawing replaces drawing i.
func (w *Workbook) SetDrawing(i int, c Collection) error {
	if i < 0 || i >= len(w.drawings) {
		return fmt.Errorf("drawing %d out of range [0, %d)", i, len(w.drawings))
	}
	w.drawings[i] = c
	return nil
}

// Clone returns a workbook sharing no mutable state with w.
func (w *Workbook) Clone() *Workbook {
	out := &Workbook{drawings: make([]Collection, len(w.drawings))}
	copy(out.drawings, w.drawings)
	return out
}

type drawingJSON struct {
	Elements []Record `json:"elements"`
}

type workbookJSON struct {
	Drawings []drawingJSON `json:"drawings"`
}

func (w *Workbook) MarshalJSON() ([]byte, error) {
	out := workbookJSON{Drawings: make([]drawingJSON, len(w.drawings))}
	for i, d := range w.drawings {
		out.Drawings[i] = drawingJSON{Elements: d.Records()}
	}
	return json.Marshal(out)
}

func (w *Workbook) UnmarshalJSON(data []byte) error {
	var in workbookJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	drawings := make([]Collection, len(in.Drawings))
	for i, d := range in.Drawings {
		c, err := FromRecords(d.Elements)
		if err != nil {
			return fmt.Errorf("drawing %d: %w", i, err)
		}
		drawings[i] = c
	}
	if len(drawings) == 0 {
		drawings = []Collection{Empty()}
	}
	w.drawings = drawings
	return nil
}
