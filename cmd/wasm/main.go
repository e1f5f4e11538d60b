//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/engine"
	"github.com/inamate/planner/internal/geometry"
)

var session *engine.Session

func main() {
	session = engine.NewSession(engine.WithCursorFunc(notifyCursor))

	api := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("cancelDrag", js.FuncOf(cancelDrag))
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("newDocument", js.FuncOf(newDocument))
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("loadSampleDocument", js.FuncOf(loadSampleDocument))
	api.Set("loadWorkbook", js.FuncOf(loadWorkbook))
	api.Set("addDrawing", js.FuncOf(addDrawing))
	api.Set("switchDrawing", js.FuncOf(switchDrawing))
	api.Set("applyRemoteDrawing", js.FuncOf(applyRemoteDrawing))

	// --- Queries (frontend ← engine) ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("cursorAt", js.FuncOf(cursorAt))
	api.Set("getState", js.FuncOf(getState))
	api.Set("getDocument", js.FuncOf(getDocument))
	api.Set("getWorkbook", js.FuncOf(getWorkbook))
	api.Set("getActiveDrawing", js.FuncOf(getActiveDrawing))
	api.Set("getDrawingCount", js.FuncOf(getDrawingCount))

	js.Global().Set("plannerEngine", api)

	// Signal that WASM is ready
	js.Global().Set("plannerWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

// notifyCursor forwards hover hints to window.plannerSetCursor when the
// page defines it.
func notifyCursor(c geometry.Cursor) {
	fn := js.Global().Get("plannerSetCursor")
	if fn.Type() == js.TypeFunction {
		fn.Invoke(string(c))
	}
}

func ok() any {
	return js.ValueOf(map[string]any{"ok": true})
}

func fail(msg string) any {
	return js.ValueOf(map[string]any{"error": msg})
}

func point(args []js.Value) (float64, float64, bool) {
	if len(args) < 2 {
		return 0, 0, false
	}
	return args[0].Float(), args[1].Float(), true
}

// --- Command Handlers ---

func pointerDown(this js.Value, args []js.Value) any {
	x, y, valid := point(args)
	if !valid {
		return fail("missing x, y")
	}
	session.OnPointerDown(x, y)
	return ok()
}

func pointerMove(this js.Value, args []js.Value) any {
	x, y, valid := point(args)
	if !valid {
		return fail("missing x, y")
	}
	session.OnPointerMove(x, y)
	return ok()
}

func pointerUp(this js.Value, args []js.Value) any {
	session.OnPointerUp()
	return ok()
}

func cancelDrag(this js.Value, args []js.Value) any {
	session.CancelDrag()
	return ok()
}

func setTool(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing tool")
	}
	tool, err := engine.ParseTool(args[0].String())
	if err != nil {
		return fail(err.Error())
	}
	session.SetActiveTool(tool)
	return ok()
}

func newDocument(this js.Value, args []js.Value) any {
	session.NewDocument()
	return ok()
}

func loadDocument(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing document JSON")
	}
	if err := session.LoadDocumentJSON(args[0].String()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func loadSampleDocument(this js.Value, args []js.Value) any {
	session.LoadCollection(document.NewSampleDrawing())
	return ok()
}

func loadWorkbook(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing workbook JSON")
	}
	if err := session.LoadWorkbookJSON(args[0].String()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

func addDrawing(this js.Value, args []js.Value) any {
	return js.ValueOf(session.AddDrawing())
}

func switchDrawing(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return fail("missing drawing index")
	}
	if err := session.SwitchDrawing(args[0].Int()); err != nil {
		return fail(err.Error())
	}
	return ok()
}

// applyRemoteDrawing(index, recordsJSON) installs a drawing received from
// the collaboration server.
func applyRemoteDrawing(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return fail("missing drawing index or records")
	}
	var records []document.Record
	if err := json.Unmarshal([]byte(args[1].String()), &records); err != nil {
		return fail(err.Error())
	}
	c, err := document.FromRecords(records)
	if err != nil {
		return fail(err.Error())
	}
	if err := session.ReplaceDrawing(args[0].Int(), c); err != nil {
		return fail(err.Error())
	}
	return ok()
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) any {
	return js.ValueOf(session.Render())
}

func hitTest(this js.Value, args []js.Value) any {
	x, y, valid := point(args)
	if !valid {
		return js.ValueOf("null")
	}
	return js.ValueOf(session.HitTest(x, y))
}

func cursorAt(this js.Value, args []js.Value) any {
	x, y, valid := point(args)
	if !valid {
		return js.ValueOf(string(geometry.CursorDefault))
	}
	return js.ValueOf(string(session.CursorAt(x, y)))
}

func getState(this js.Value, args []js.Value) any {
	return js.ValueOf(session.GetState())
}

func getDocument(this js.Value, args []js.Value) any {
	return js.ValueOf(session.GetDocument())
}

func getWorkbook(this js.Value, args []js.Value) any {
	return js.ValueOf(session.WorkbookJSON())
}

func getActiveDrawing(this js.Value, args []js.Value) any {
	return js.ValueOf(session.Active())
}

func getDrawingCount(this js.Value, args []js.Value) any {
	return js.ValueOf(session.Drawings())
}
