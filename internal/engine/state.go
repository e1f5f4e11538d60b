package engine

import (
	"fmt"

	"github.com/inamate/planner/internal/geometry"
)

// Tool is the active toolbar tool.
type Tool int

const (
	ToolSegment Tool = iota + 1
	ToolRectangle
	ToolSelect
	ToolDelete
)

var toolNames = map[Tool]string{
	ToolSegment:   "segment",
	ToolRectangle: "rectangle",
	ToolSelect:    "select",
	ToolDelete:    "delete",
}

func (t Tool) String() string {
	if name, ok := toolNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Tool(%d)", int(t))
}

// ParseTool parses the text form produced by String.
func ParseTool(s string) (Tool, error) {
	for t, name := range toolNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown tool %q", s)
}

func (t Tool) MarshalText() ([]byte, error) {
	if _, ok := toolNames[t]; !ok {
		return nil, fmt.Errorf("unknown tool %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Tool) UnmarshalText(text []byte) error {
	parsed, err := ParseTool(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Kind returns the element kind a drawing tool creates.
func (t Tool) Kind() (geometry.Kind, bool) {
	switch t {
	case ToolSegment:
		return geometry.Segment, true
	case ToolRectangle:
		return geometry.Rectangle, true
	default:
		return 0, false
	}
}

// Mode is the phase of the pointer interaction.
type Mode int

const (
	Idle Mode = iota
	Drawing
	Moving
	Resizing
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Drawing:
		return "drawing"
	case Moving:
		return "moving"
	case Resizing:
		return "resizing"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Drag describes the element being edited between press and release.
type Drag struct {
	ElementID int `json:"elementId"`
	// Anchor is the press point relative to the element's (x1, y1).
	Anchor geometry.Point `json:"anchor"`
	// Handle is set only while resizing.
	Handle geometry.Hit `json:"-"`
	// Origin is the element's coordinates at press time.
	Origin geometry.Coords `json:"origin"`
}

// State is the interaction state machine. Mode is Idle exactly when Drag is
// nil, and there is never more than one drag.
type State struct {
	Mode Mode  `json:"mode"`
	Tool Tool  `json:"tool"`
	Drag *Drag `json:"drag,omitempty"`
}

func (s State) clone() State {
	if s.Drag != nil {
		d := *s.Drag
		s.Drag = &d
	}
	return s
}
