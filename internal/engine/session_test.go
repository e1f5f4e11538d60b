package engine

import (
	"testing"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/geometry"
)

func drawSegment(e *Engine, x1, y1, x2, y2 float64) {
	e.SetActiveTool(ToolSegment)
	e.OnPointerDown(x1, y1)
	e.OnPointerMove(x2, y2)
	e.OnPointerUp()
}

func TestSessionKeepsDrawingsApart(t *testing.T) {
	s := NewSession()
	drawSegment(s.Engine, 0, 0, 10, 10)

	if i := s.AddDrawing(); i != 1 {
		t.Fatalf("AddDrawing = %d, want 1", i)
	}
	if len(s.Elements()) != 0 {
		t.Fatalf("new drawing has %d elements", len(s.Elements()))
	}
	drawSegment(s.Engine, 5, 5, 6, 6)
	drawSegment(s.Engine, 7, 7, 8, 8)

	if err := s.SwitchDrawing(0); err != nil {
		t.Fatalf("SwitchDrawing: %v", err)
	}
	if len(s.Elements()) != 1 {
		t.Errorf("drawing 0 has %d elements, want 1", len(s.Elements()))
	}

	wb := s.Workbook()
	second, _ := wb.Drawing(1)
	if second.Len() != 2 {
		t.Errorf("drawing 1 has %d elements, want 2", second.Len())
	}
	if err := s.SwitchDrawing(2); err == nil {
		t.Error("switch to missing drawing accepted")
	}
}

func TestSessionSwitchCancelsDrag(t *testing.T) {
	s := NewSession()
	s.AddDrawing()
	s.OnPointerDown(1, 1)
	s.OnPointerMove(20, 20)

	if err := s.SwitchDrawing(0); err != nil {
		t.Fatalf("SwitchDrawing: %v", err)
	}
	if st := s.State(); st.Mode != Idle || st.Drag != nil {
		t.Errorf("state after switch = %+v", st)
	}
	wb := s.Workbook()
	if d, _ := wb.Drawing(1); d.Len() != 1 {
		t.Errorf("in-progress element not kept: %d", d.Len())
	}
}

func TestSessionReplaceDrawing(t *testing.T) {
	s := NewSession()
	s.OnPointerDown(1, 1)

	remote := document.Empty()
	remote, _ = remote.Append(geometry.Rectangle, geometry.C(0, 0, 50, 50))
	if err := s.ReplaceDrawing(0, remote); err != nil {
		t.Fatalf("ReplaceDrawing: %v", err)
	}
	if s.State().Mode != Idle {
		t.Error("remote replace of the open drawing did not cancel the drag")
	}
	if len(s.Elements()) != 1 {
		t.Errorf("elements = %d, want 1", len(s.Elements()))
	}

	if err := s.ReplaceDrawing(4, remote); err == nil {
		t.Error("replace of missing drawing accepted")
	}
}

func TestSessionWorkbookJSON(t *testing.T) {
	s := NewSession()
	drawSegment(s.Engine, 0, 0, 3, 4)
	s.AddDrawing()
	data := s.WorkbookJSON()

	other := NewSession()
	if err := other.LoadWorkbookJSON(data); err != nil {
		t.Fatalf("LoadWorkbookJSON: %v", err)
	}
	if other.Drawings() != 2 || other.Active() != 0 || len(other.Elements()) != 1 {
		t.Errorf("loaded session: drawings=%d active=%d elements=%d",
			other.Drawings(), other.Active(), len(other.Elements()))
	}
	if err := other.LoadWorkbookJSON("{"); err == nil {
		t.Error("bad JSON accepted")
	}
}
