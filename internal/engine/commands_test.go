package engine

import (
	"encoding/json"
	"testing"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/geometry"
)

func TestCompileDrawCommands(t *testing.T) {
	c := document.Empty()
	c, _ = c.Append(geometry.Segment, geometry.C(0, 0, 10, 0))
	c, _ = c.Append(geometry.Rectangle, geometry.C(10, 10, 60, 40))

	cmds := CompileDrawCommands(c.Elements(), 1)
	if len(cmds) != 3 {
		t.Fatalf("commands = %d, want 3", len(cmds))
	}
	if cmds[0].Op != "path" || cmds[0].Active {
		t.Errorf("first command = %+v", cmds[0])
	}
	if cmds[1].Op != "path" || !cmds[1].Active || cmds[1].ElementID != 1 {
		t.Errorf("second command = %+v", cmds[1])
	}
	label := cmds[2]
	if label.Op != "label" || label.Text != "W: 50.00, H: 30.00" {
		t.Errorf("label = %+v", label)
	}
	if label.X != 15 || label.Y != 35 {
		t.Errorf("label at (%v, %v), want (15, 35)", label.X, label.Y)
	}
}

func TestRenderJSON(t *testing.T) {
	e := New(WithTool(ToolRectangle))
	if got := e.Render(); got != "[]" {
		t.Errorf("empty render = %s, want []", got)
	}

	e.OnPointerDown(0, 0)
	e.OnPointerMove(20, 20)

	var cmds []map[string]any
	if err := json.Unmarshal([]byte(e.Render()), &cmds); err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 2 || cmds[0]["active"] != true {
		t.Errorf("render = %v", cmds)
	}
	path, ok := cmds[0]["path"].([]any)
	if !ok || len(path) == 0 {
		t.Fatal("path missing")
	}
	if first := path[0].([]any); first[0] != "M" {
		t.Errorf("first op = %v, want a move", first)
	}
}

func TestHitTestJSON(t *testing.T) {
	e := New(WithTool(ToolSelect))
	if err := e.LoadDocument(document.NewSampleDrawing().Records()); err != nil {
		t.Fatal(err)
	}

	var res HitTestResult
	if err := json.Unmarshal([]byte(e.HitTest(100, 100)), &res); err != nil {
		t.Fatal(err)
	}
	if res.ElementID != 0 || res.Hit != "inside" || res.Cursor != geometry.CursorMove {
		t.Errorf("hit = %+v", res)
	}
	if got := e.HitTest(1000, 1000); got != "null" {
		t.Errorf("miss = %s, want null", got)
	}
}

func TestGetState(t *testing.T) {
	e := New(WithTool(ToolRectangle))
	e.OnPointerDown(3, 4)

	var s map[string]any
	if err := json.Unmarshal([]byte(e.GetState()), &s); err != nil {
		t.Fatal(err)
	}
	if s["mode"] != "drawing" || s["tool"] != "rectangle" {
		t.Errorf("state = %v", s)
	}
	if _, ok := s["drag"]; !ok {
		t.Error("drag missing while drawing")
	}
}
