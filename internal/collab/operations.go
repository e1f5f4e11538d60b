package collab

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/geometry"
)

var ErrInvalidOperation = errors.New("invalid operation")

// DocumentState holds the authoritative workbook for a room.
type DocumentState struct {
	mu        sync.RWMutex
	wb        *document.Workbook
	serverSeq int64
	dirty     bool
}

func NewDocumentState(wb *document.Workbook) *DocumentState {
	if wb == nil {
		wb = document.NewWorkbook()
	}
	return &DocumentState{wb: wb}
}

// Snapshot returns a copy of the workbook and the sequence it reflects.
func (ds *DocumentState) Snapshot() (*document.Workbook, int64) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.wb.Clone(), ds.serverSeq
}

// TakeDirty reports whether the workbook changed since the last call and
// returns a copy to persist.
func (ds *DocumentState) TakeDirty() (*document.Workbook, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	if !ds.dirty {
		return nil, false
	}
	ds.dirty = false
	return ds.wb.Clone(), true
}

// MarkDirty flags the workbook for the next save, after a failed one.
func (ds *DocumentState) MarkDirty() {
	ds.mu.Lock()
	ds.dirty = true
	ds.mu.Unlock()
}

// Replace swaps in a whole workbook, as after a save made outside the room,
// and returns the new server sequence.
func (ds *DocumentState) Replace(wb *document.Workbook) int64 {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.wb = wb.Clone()
	ds.serverSeq++
	ds.dirty = true
	return ds.serverSeq
}

// ApplyOperation applies op and returns the new server sequence. For
// element.create and drawing.add the assigned element id or drawing index is
// written back into op.
func (ds *DocumentState) ApplyOperation(op *Operation) (int64, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if err := ds.applyLocked(op); err != nil {
		return 0, err
	}

	ds.serverSeq++
	ds.dirty = true
	return ds.serverSeq, nil
}

func (ds *DocumentState) applyLocked(op *Operation) error {
	if op.Type == OpDrawingAdd {
		op.Drawing = ds.wb.Add()
		return nil
	}

	drawing, ok := ds.wb.Drawing(op.Drawing)
	if !ok {
		return fmt.Errorf("%w: drawing %d out of range", ErrInvalidOperation, op.Drawing)
	}

	var err error
	switch op.Type {
	case OpElementCreate:
		drawing, err = applyCreate(drawing, op)
	case OpElementUpdate:
		drawing, err = applyUpdate(drawing, op)
	case OpElementDelete:
		drawing, err = applyDelete(drawing, op)
	default:
		return fmt.Errorf("%w: unknown operation type %q", ErrInvalidOperation, op.Type)
	}
	if err != nil {
		return err
	}
	return ds.wb.SetDrawing(op.Drawing, drawing)
}

func applyCreate(c document.Collection, op *Operation) (document.Collection, error) {
	if op.Kind != geometry.Segment && op.Kind != geometry.Rectangle {
		return c, fmt.Errorf("%w: unknown element kind", ErrInvalidOperation)
	}
	if err := checkCoords(op.Coords); err != nil {
		return c, err
	}
	c, el := c.Append(op.Kind, geometry.Normalize(op.Kind, *op.Coords))
	id := el.ID
	op.ElementID = &id
	return c, nil
}

func applyUpdate(c document.Collection, op *Operation) (document.Collection, error) {
	if op.ElementID == nil {
		return c, fmt.Errorf("%w: missing element id", ErrInvalidOperation)
	}
	if err := checkCoords(op.Coords); err != nil {
		return c, err
	}
	el, ok := c.At(*op.ElementID)
	if !ok {
		return c, fmt.Errorf("element %d: %w", *op.ElementID, document.ErrNoElement)
	}
	return c.Replace(el.ID, geometry.Normalize(el.Kind, *op.Coords))
}

func applyDelete(c document.Collection, op *Operation) (document.Collection, error) {
	if op.ElementID == nil {
		return c, fmt.Errorf("%w: missing element id", ErrInvalidOperation)
	}
	return c.Remove(*op.ElementID)
}

func checkCoords(c *geometry.Coords) error {
	if c == nil {
		return fmt.Errorf("%w: missing coords", ErrInvalidOperation)
	}
	for _, v := range []float64{c.X1, c.Y1, c.X2, c.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coordinate", ErrInvalidOperation)
		}
	}
	return nil
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
