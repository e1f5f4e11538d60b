package collab

import (
	"errors"
	"math"
	"testing"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/geometry"
)

func coords(x1, y1, x2, y2 float64) *geometry.Coords {
	c := geometry.C(x1, y1, x2, y2)
	return &c
}

func intp(v int) *int { return &v }

func TestApplyCreateNormalizes(t *testing.T) {
	ds := NewDocumentState(nil)

	op := Operation{ID: "op1", Type: OpElementCreate, Kind: geometry.Rectangle, Coords: coords(50, 60, 10, 20)}
	seq, err := ds.ApplyOperation(&op)
	if err != nil {
		t.Fatalf("ApplyOperation: %v", err)
	}
	if seq != 1 {
		t.Errorf("seq = %d, want 1", seq)
	}
	if op.ElementID == nil || *op.ElementID != 0 {
		t.Fatalf("assigned id = %v, want 0", op.ElementID)
	}

	wb, _ := ds.Snapshot()
	d, _ := wb.Drawing(0)
	el, _ := d.At(0)
	if el.Coords != geometry.C(10, 20, 50, 60) {
		t.Errorf("coords = %+v, want normalized", el.Coords)
	}
}

func TestApplyUpdateAndDelete(t *testing.T) {
	ds := NewDocumentState(nil)
	for _, c := range []*geometry.Coords{coords(0, 0, 10, 10), coords(20, 20, 30, 30), coords(40, 40, 50, 50)} {
		op := Operation{Type: OpElementCreate, Kind: geometry.Segment, Coords: c}
		if _, err := ds.ApplyOperation(&op); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	update := Operation{Type: OpElementUpdate, ElementID: intp(1), Coords: coords(21, 21, 31, 31)}
	if _, err := ds.ApplyOperation(&update); err != nil {
		t.Fatalf("update: %v", err)
	}
	del := Operation{Type: OpElementDelete, ElementID: intp(0)}
	seq, err := ds.ApplyOperation(&del)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if seq != 5 {
		t.Errorf("seq = %d, want 5", seq)
	}

	wb, _ := ds.Snapshot()
	d, _ := wb.Drawing(0)
	if d.Len() != 2 {
		t.Fatalf("len = %d, want 2", d.Len())
	}
	first, _ := d.At(0)
	if first.ID != 0 || first.X1 != 21 {
		t.Errorf("first after delete = %+v, want re-indexed updated element", first)
	}
}

func TestApplyRejects(t *testing.T) {
	tests := []struct {
		name string
		op   Operation
		want error
	}{
		{"unknown type", Operation{Type: "element.rotate"}, ErrInvalidOperation},
		{"bad drawing", Operation{Type: OpElementCreate, Drawing: 3, Kind: geometry.Segment, Coords: coords(0, 0, 1, 1)}, ErrInvalidOperation},
		{"no kind", Operation{Type: OpElementCreate, Coords: coords(0, 0, 1, 1)}, ErrInvalidOperation},
		{"no coords", Operation{Type: OpElementCreate, Kind: geometry.Segment}, ErrInvalidOperation},
		{"nan", Operation{Type: OpElementCreate, Kind: geometry.Segment, Coords: coords(math.NaN(), 0, 1, 1)}, ErrInvalidOperation},
		{"update missing id", Operation{Type: OpElementUpdate, Coords: coords(0, 0, 1, 1)}, ErrInvalidOperation},
		{"update unknown element", Operation{Type: OpElementUpdate, ElementID: intp(9), Coords: coords(0, 0, 1, 1)}, document.ErrNoElement},
		{"delete unknown element", Operation{Type: OpElementDelete, ElementID: intp(0)}, document.ErrNoElement},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := NewDocumentState(nil)
			_, err := ds.ApplyOperation(&tt.op)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if _, dirty := ds.TakeDirty(); dirty {
				t.Error("rejected operation marked the document dirty")
			}
		})
	}
}

func TestDrawingAdd(t *testing.T) {
	ds := NewDocumentState(nil)
	op := Operation{Type: OpDrawingAdd}
	if _, err := ds.ApplyOperation(&op); err != nil {
		t.Fatalf("ApplyOperation: %v", err)
	}
	if op.Drawing != 1 {
		t.Errorf("new drawing index = %d, want 1", op.Drawing)
	}

	create := Operation{Type: OpElementCreate, Drawing: 1, Kind: geometry.Segment, Coords: coords(0, 0, 5, 5)}
	if _, err := ds.ApplyOperation(&create); err != nil {
		t.Fatalf("create in new drawing: %v", err)
	}
	wb, _ := ds.Snapshot()
	if first, _ := wb.Drawing(0); first.Len() != 0 {
		t.Errorf("first drawing changed")
	}
}

func TestTakeDirty(t *testing.T) {
	ds := NewDocumentState(nil)
	if _, dirty := ds.TakeDirty(); dirty {
		t.Fatal("fresh state is dirty")
	}
	op := Operation{Type: OpElementCreate, Kind: geometry.Segment, Coords: coords(0, 0, 5, 5)}
	ds.ApplyOperation(&op)

	wb, dirty := ds.TakeDirty()
	if !dirty || wb == nil {
		t.Fatal("expected dirty after apply")
	}
	if _, dirty := ds.TakeDirty(); dirty {
		t.Error("still dirty after take")
	}
	ds.MarkDirty()
	if _, dirty := ds.TakeDirty(); !dirty {
		t.Error("MarkDirty had no effect")
	}
}
