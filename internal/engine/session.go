package engine

import (
	"encoding/json"
	"fmt"

	"github.com/inamate/planner/internal/document"
)

// Session pairs an Engine with the workbook it edits. The engine always
// holds the active drawing; the workbook slot for it is refreshed whenever
// the session switches drawings or hands the workbook out.
type Session struct {
	*Engine
	wb     *document.Workbook
	active int
}

func NewSession(opts ...Option) *Session {
	return &Session{Engine: New(opts...), wb: document.NewWorkbook()}
}

// Active returns the index of the drawing open in the engine.
func (s *Session) Active() int {
	return s.active
}

// Drawings returns the number of drawings in the workbook.
func (s *Session) Drawings() int {
	return s.wb.Len()
}

// AddDrawing appends an empty drawing and opens it.
func (s *Session) AddDrawing() int {
	s.commit()
	i := s.wb.Add()
	s.open(i)
	return i
}

// SwitchDrawing opens drawing i. Any drag on the current drawing is
// cancelled.
func (s *Session) SwitchDrawing(i int) error {
	if i < 0 || i >= s.wb.Len() {
		return fmt.Errorf("drawing %d out of range [0, %d)", i, s.wb.Len())
	}
	s.commit()
	s.open(i)
	return nil
}

// ReplaceDrawing installs a drawing received from elsewhere, such as a
// collaborator's edit. Replacing the open drawing cancels any drag.
func (s *Session) ReplaceDrawing(i int, c document.Collection) error {
	if i == s.active {
		if err := s.wb.SetDrawing(i, c); err != nil {
			return err
		}
		s.LoadCollection(c)
		return nil
	}
	return s.wb.SetDrawing(i, c)
}

// Workbook returns a copy of the workbook including the open drawing's
// latest edits.
func (s *Session) Workbook() *document.Workbook {
	s.commit()
	return s.wb.Clone()
}

// LoadWorkbook replaces every drawing and opens the first.
func (s *Session) LoadWorkbook(wb *document.Workbook) {
	s.wb = wb.Clone()
	s.open(0)
}

func (s *Session) WorkbookJSON() string {
	data, err := json.Marshal(s.Workbook())
	if err != nil {
		return `{"drawings":[]}`
	}
	return string(data)
}

func (s *Session) LoadWorkbookJSON(data string) error {
	wb := document.NewWorkbook()
	if err := json.Unmarshal([]byte(data), wb); err != nil {
		return err
	}
	s.LoadWorkbook(wb)
	return nil
}

func (s *Session) commit() {
	// active is always in range, so this cannot fail.
	_ = s.wb.SetDrawing(s.active, s.Collection())
}

func (s *Session) open(i int) {
	c, _ := s.wb.Drawing(i)
	s.active = i
	s.LoadCollection(c)
}
