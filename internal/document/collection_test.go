package document

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/inamate/planner/internal/geometry"
)

func build(t *testing.T, coords ...geometry.Coords) Collection {
	t.Helper()
	c := Empty()
	for _, xy := range coords {
		c, _ = c.Append(geometry.Rectangle, xy)
	}
	return c
}

func assertIndexed(t *testing.T, c Collection) {
	t.Helper()
	for i, e := range c.Elements() {
		if e.ID != i {
			t.Fatalf("element at %d has id %d", i, e.ID)
		}
	}
}

func TestNewElementDerivedFields(t *testing.T) {
	e := NewElement(3, geometry.Rectangle, geometry.C(50, 40, 10, 10))
	if e.Width != 40 || e.Height != 30 {
		t.Errorf("size = %vx%v, want 40x30", e.Width, e.Height)
	}
	if e.Drawable.Kind != geometry.Rectangle || len(e.Drawable.Ops) == 0 {
		t.Error("drawable not generated")
	}

	seg := NewElement(0, geometry.Segment, geometry.C(0, 0, 30, 40))
	if seg.Width != 0 || seg.Height != 0 {
		t.Errorf("segment size = %vx%v, want 0x0", seg.Width, seg.Height)
	}
}

func TestAppendLeavesReceiverUntouched(t *testing.T) {
	before := build(t, geometry.C(0, 0, 10, 10))
	after, e := before.Append(geometry.Segment, geometry.C(5, 5, 5, 5))

	if before.Len() != 1 {
		t.Errorf("receiver len = %d, want 1", before.Len())
	}
	if after.Len() != 2 || e.ID != 1 {
		t.Errorf("after len = %d, new id = %d; want 2, 1", after.Len(), e.ID)
	}
}

func TestReplace(t *testing.T) {
	c := build(t, geometry.C(0, 0, 10, 10), geometry.C(20, 20, 30, 30))
	next, err := c.Replace(1, geometry.C(20, 20, 60, 50))
	if err != nil {
		t.Fatal(err)
	}

	got, _ := next.At(1)
	if got.Coords != geometry.C(20, 20, 60, 50) || got.Width != 40 {
		t.Errorf("replaced element = %+v", got.Record())
	}
	if old, _ := c.At(1); old.Coords != geometry.C(20, 20, 30, 30) {
		t.Error("Replace modified the receiver")
	}
	first, _ := next.At(0)
	orig, _ := c.At(0)
	if !reflect.DeepEqual(first, orig) {
		t.Error("Replace touched another slot")
	}

	if _, err := c.Replace(2, geometry.C(0, 0, 1, 1)); !errors.Is(err, ErrNoElement) {
		t.Errorf("Replace out of range err = %v, want ErrNoElement", err)
	}
}

func TestRemoveReindexes(t *testing.T) {
	c := build(t,
		geometry.C(0, 0, 10, 10),
		geometry.C(20, 20, 30, 30),
		geometry.C(40, 40, 50, 50),
		geometry.C(60, 60, 70, 70),
	)

	next, err := c.Remove(1)
	if err != nil {
		t.Fatal(err)
	}
	if next.Len() != 3 {
		t.Fatalf("len = %d, want 3", next.Len())
	}
	assertIndexed(t, next)

	e, _ := next.At(1)
	if e.Coords != geometry.C(40, 40, 50, 50) {
		t.Errorf("slot 1 = %v, want the former slot 2", e.Coords)
	}
	if c.Len() != 4 {
		t.Error("Remove modified the receiver")
	}
	assertIndexed(t, c)

	if _, err := next.Remove(-1); !errors.Is(err, ErrNoElement) {
		t.Errorf("Remove(-1) err = %v, want ErrNoElement", err)
	}
}

func TestRemoveAll(t *testing.T) {
	c := build(t, geometry.C(0, 0, 1, 1), geometry.C(2, 2, 3, 3))
	for c.Len() > 0 {
		var err error
		if c, err = c.Remove(0); err != nil {
			t.Fatal(err)
		}
		assertIndexed(t, c)
	}
}

func TestHitTest(t *testing.T) {
	c := build(t, geometry.C(0, 0, 100, 100), geometry.C(50, 50, 60, 60))
	e, hit, ok := c.HitTest(geometry.Pt(55, 55))
	if !ok || e.ID != 0 || hit != geometry.Inside {
		t.Errorf("HitTest = (%d, %v, %v), want (0, inside, true)", e.ID, hit, ok)
	}
	if _, _, ok := c.HitTest(geometry.Pt(500, 500)); ok {
		t.Error("expected miss")
	}
}

func TestBounds(t *testing.T) {
	if _, ok := Empty().Bounds(); ok {
		t.Error("empty collection reported bounds")
	}
	c := Empty()
	c, _ = c.Append(geometry.Rectangle, geometry.C(10, 10, 20, 20))
	c, _ = c.Append(geometry.Segment, geometry.C(50, 0, 0, 30))
	b, ok := c.Bounds()
	if !ok || b != (geometry.Rect{X: 0, Y: 0, Width: 50, Height: 30}) {
		t.Errorf("Bounds = %+v", b)
	}
}

func TestRecordJSON(t *testing.T) {
	e := NewElement(0, geometry.Segment, geometry.C(1, 2, 3, 4.5))
	data, err := json.Marshal(e.Record())
	if err != nil {
		t.Fatal(err)
	}
	want := `{"id":0,"kind":"segment","x1":1,"y1":2,"x2":3,"y2":4.5}`
	if string(data) != want {
		t.Errorf("got %s, want %s", data, want)
	}

	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(back.Element(), e) {
		t.Error("round trip did not rebuild an equal element")
	}
}

func TestElementJSONOmitsDrawable(t *testing.T) {
	data, err := json.Marshal(NewElement(0, geometry.Rectangle, geometry.C(0, 0, 2, 2)))
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatal(err)
	}
	if _, ok := fields["Drawable"]; ok {
		t.Error("drawable was serialized")
	}
	if fields["width"] != 2.0 {
		t.Errorf("width = %v, want 2", fields["width"])
	}
}

func TestFromRecords(t *testing.T) {
	c, err := FromRecords([]Record{
		{ID: 7, Kind: geometry.Rectangle, Coords: geometry.C(0, 0, 4, 4)},
		{ID: 9, Kind: geometry.Segment, Coords: geometry.C(1, 1, 2, 2)},
	})
	if err != nil {
		t.Fatal(err)
	}
	assertIndexed(t, c)

	if _, err := FromRecords([]Record{{Kind: geometry.Kind(0)}}); err == nil {
		t.Error("expected error for zero kind")
	}
}

func TestWorkbookJSON(t *testing.T) {
	wb := NewWorkbook()
	if err := wb.SetDrawing(0, NewSampleDrawing()); err != nil {
		t.Fatal(err)
	}
	second := wb.Add()
	c, _ := Empty().Append(geometry.Segment, geometry.C(0, 0, 9, 9))
	if err := wb.SetDrawing(second, c); err != nil {
		t.Fatal(err)
	}

	data, err := json.Marshal(wb)
	if err != nil {
		t.Fatal(err)
	}

	back := &Workbook{}
	if err := json.Unmarshal(data, back); err != nil {
		t.Fatal(err)
	}
	if back.Len() != 2 {
		t.Fatalf("drawings = %d, want 2", back.Len())
	}
	for i := 0; i < 2; i++ {
		want, _ := wb.Drawing(i)
		got, _ := back.Drawing(i)
		if !reflect.DeepEqual(got.Records(), want.Records()) {
			t.Errorf("drawing %d records differ after round trip", i)
		}
	}

	if err := wb.SetDrawing(5, Empty()); err == nil {
		t.Error("expected out of range error")
	}
}

func TestWorkbookEmptyJSON(t *testing.T) {
	wb := &Workbook{}
	if err := json.Unmarshal([]byte(`{"drawings":[]}`), wb); err != nil {
		t.Fatal(err)
	}
	if wb.Len() != 1 {
		t.Errorf("drawings = %d, want 1", wb.Len())
	}
}
