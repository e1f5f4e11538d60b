package collab

import (
	"encoding/json"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/geometry"
)

type Message struct {
	Type     string          `json:"type"`
	PlanID   string          `json:"planId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Tool        string     `json:"tool,omitempty"`
	Drawing     *int       `json:"drawing,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

// DocSyncPayload carries the room's full workbook.
type DocSyncPayload struct {
	ServerSeq int64              `json:"serverSeq"`
	Workbook  *document.Workbook `json:"workbook"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Document sync
	TypeDocSync    = "doc.sync"
	TypeDocRequest = "doc.request"

	// Operation message types
	TypeOpSubmit    = "op.submit"
	TypeOpAck       = "op.ack"
	TypeOpNack      = "op.nack"
	TypeOpBroadcast = "op.broadcast"
)

// Operation kinds.
const (
	OpElementCreate = "element.create"
	OpElementUpdate = "element.update"
	OpElementDelete = "element.delete"
	OpDrawingAdd    = "drawing.add"
)

// Operation is one mutation of a plan's workbook. Drawing selects the
// drawing it applies to; element ids are positions within that drawing.
type Operation struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	ClientSeq int64  `json:"clientSeq"`
	Drawing   int    `json:"drawing"`

	// Target of element.update and element.delete. Filled in by the server
	// for element.create.
	ElementID *int `json:"elementId,omitempty"`

	// For element.create and element.update
	Kind   geometry.Kind    `json:"kind,omitempty"`
	Coords *geometry.Coords `json:"coords,omitempty"`
}

// OperationSubmitPayload is the payload for op.submit messages
type OperationSubmitPayload struct {
	Operation Operation `json:"operation"`
}

// OperationAckPayload is the payload for op.ack messages
type OperationAckPayload struct {
	OperationID     string `json:"operationId"`
	ServerSeq       int64  `json:"serverSeq"`
	ServerTimestamp int64  `json:"serverTimestamp"`
	ElementID       *int   `json:"elementId,omitempty"`
	Drawing         int    `json:"drawing"`
}

// OperationNackPayload is the payload for op.nack messages
type OperationNackPayload struct {
	OperationID string `json:"operationId"`
	Reason      string `json:"reason"`
}

// OperationBroadcastPayload is the payload for op.broadcast messages
type OperationBroadcastPayload struct {
	Operation Operation `json:"operation"`
	UserID    string    `json:"userId"`
	ServerSeq int64     `json:"serverSeq"`
}

func newMessage(msgType string, payload any) *Message {
	data, _ := json.Marshal(payload)
	return &Message{Type: msgType, Payload: data}
}
