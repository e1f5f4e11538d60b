package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/metrics"
)

const saveTimeout = 10 * time.Second

// Loader fetches a plan's latest workbook when its room opens.
type Loader func(ctx context.Context, planID string) (*document.Workbook, error)

// Saver persists a room's workbook.
type Saver func(ctx context.Context, planID string, wb *document.Workbook) error

type Room struct {
	planID   string
	clients  map[string]*Client // clientID -> client
	presence *PresenceManager
	doc      *DocumentState
}

func NewRoom(planID string, wb *document.Workbook) *Room {
	return &Room{
		planID:   planID,
		clients:  make(map[string]*Client),
		presence: NewPresenceManager(),
		doc:      NewDocumentState(wb),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // planID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	load     Loader
	save     Saver
	schedule string
	metrics  *metrics.Metrics
}

type Option func(*Hub)

// WithAutosave saves dirty rooms on a cron schedule such as "@every 30s".
func WithAutosave(schedule string) Option {
	return func(h *Hub) { h.schedule = schedule }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

func NewHub(load Loader, save Saver, opts ...Option) *Hub {
	h := &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		load:       load,
		save:       save,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run serves registrations until ctx is cancelled, then saves every dirty
// room before returning.
func (h *Hub) Run(ctx context.Context) error {
	sched := cron.New()
	if h.schedule != "" {
		if _, err := sched.AddFunc(h.schedule, func() {
			if n := h.SaveDirty(context.Background()); n > 0 {
				slog.Debug("autosave complete", "rooms", n)
			}
		}); err != nil {
			close(h.done)
			return fmt.Errorf("autosave schedule %q: %w", h.schedule, err)
		}
	}
	sched.Start()

	defer func() {
		close(h.done)
		<-sched.Stop().Done()
		slog.Info("saving all plans...")
		h.SaveDirty(context.Background())
	}()

	for {
		select {
		case client := <-h.register:
			h.addClient(ctx, client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return nil
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.close()
	}
}

// Rooms returns the number of open rooms.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// SaveDirty persists every room whose workbook changed since its last save
// and returns how many were written.
func (h *Hub) SaveDirty(ctx context.Context) int {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	saved := 0
	for _, room := range rooms {
		if h.saveRoom(ctx, room) {
			saved++
		}
	}
	return saved
}

func (h *Hub) saveRoom(ctx context.Context, room *Room) bool {
	wb, dirty := room.doc.TakeDirty()
	if !dirty {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, saveTimeout)
	defer cancel()
	if err := h.save(ctx, room.planID, wb); err != nil {
		room.doc.MarkDirty()
		slog.Error("save plan failed", "plan", room.planID, "error", err)
		return false
	}
	return true
}

// Replace hands a workbook saved outside the websocket path to the plan's
// open room, if any, and resyncs its clients. It reports whether a room was
// open. The room stays dirty so its next save cannot fall behind wb.
func (h *Hub) Replace(planID string, wb *document.Workbook) bool {
	room, ok := h.roomFor(planID)
	if !ok {
		return false
	}
	seq := room.doc.Replace(wb)

	h.mu.RLock()
	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		h.sendSync(c, room)
	}

	slog.Info("plan replaced in open room", "plan", planID, "seq", seq, "clients", len(clients))
	return true
}

func (h *Hub) openRoom(ctx context.Context, planID string) (*Room, error) {
	h.mu.RLock()
	room, ok := h.rooms[planID]
	h.mu.RUnlock()
	if ok {
		return room, nil
	}

	wb, err := h.load(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("load plan %s: %w", planID, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.rooms[planID]; ok {
		return existing, nil
	}
	room = NewRoom(planID, wb)
	h.rooms[planID] = room
	return room, nil
}

func (h *Hub) addClient(ctx context.Context, client *Client) {
	room, err := h.openRoom(ctx, client.PlanID)
	if err != nil {
		slog.Error("open room", "error", err, "plan", client.PlanID)
		client.Send(newMessage(TypeError, ErrorPayload{Message: "failed to load plan"}))
		client.close()
		return
	}

	h.mu.Lock()
	room.clients[client.ClientID] = client
	h.mu.Unlock()
	h.metrics.ClientConnected()

	client.Send(newMessage(TypeWelcome, WelcomePayload{ClientID: client.ClientID, UserID: client.UserID}))
	h.sendSync(client, room)
	client.Send(room.presence.StateMessage())

	joinMsg := newMessage(TypePresenceJoin, PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	joinMsg.UserID = client.UserID
	joinMsg.ClientID = client.ClientID
	h.broadcastToRoom(client.PlanID, joinMsg, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "plan", client.PlanID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.PlanID]
	if !ok {
		h.mu.Unlock()
		client.close()
		return
	}
	if _, member := room.clients[client.ClientID]; !member {
		h.mu.Unlock()
		client.close()
		return
	}

	delete(room.clients, client.ClientID)
	client.close()
	room.presence.Remove(client.ClientID)

	last := len(room.clients) == 0
	if last {
		delete(h.rooms, client.PlanID)
	}
	h.mu.Unlock()
	h.metrics.ClientDisconnected()

	if last {
		h.saveRoom(context.Background(), room)
	} else {
		leaveMsg := newMessage(TypePresenceLeave, PresenceLeavePayload{UserID: client.UserID})
		leaveMsg.UserID = client.UserID
		leaveMsg.ClientID = client.ClientID
		h.broadcastToRoom(client.PlanID, leaveMsg, "")
	}

	slog.Info("client left", "user", client.UserID, "plan", client.PlanID)
}

func (h *Hub) roomFor(planID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[planID]
	return room, ok
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	switch msg.Type {
	case TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case TypeOpSubmit:
		h.handleOpSubmit(sender, msg)
	case TypeDocRequest:
		if room, ok := h.roomFor(sender.PlanID); ok {
			h.sendSync(sender, room)
		}
	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) sendSync(client *Client, room *Room) {
	wb, seq := room.doc.Snapshot()
	msg := newMessage(TypeDocSync, DocSyncPayload{ServerSeq: seq, Workbook: wb})
	msg.PlanID = room.planID
	msg.Seq = seq
	client.Send(msg)
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	room, ok := h.roomFor(sender.PlanID)
	if !ok {
		return
	}

	room.presence.Update(sender.ClientID, &presence)

	outMsg := newMessage(TypePresenceUpdate, presence)
	outMsg.UserID = sender.UserID
	outMsg.ClientID = sender.ClientID
	h.broadcastToRoom(sender.PlanID, outMsg, sender.ClientID)
}

func (h *Hub) handleOpSubmit(sender *Client, msg *Message) {
	var submit OperationSubmitPayload
	if err := json.Unmarshal(msg.Payload, &submit); err != nil {
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{Reason: "invalid payload"}))
		return
	}
	op := submit.Operation

	room, ok := h.roomFor(sender.PlanID)
	if !ok {
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{OperationID: op.ID, Reason: "room closed"}))
		return
	}

	seq, err := room.doc.ApplyOperation(&op)
	h.metrics.RecordOp(op.Type, err)
	if err != nil {
		slog.Debug("operation rejected", "op", op.ID, "type", op.Type, "error", err, "user", sender.UserID)
		sender.Send(newMessage(TypeOpNack, OperationNackPayload{OperationID: op.ID, Reason: err.Error()}))
		return
	}

	ack := newMessage(TypeOpAck, OperationAckPayload{
		OperationID:     op.ID,
		ServerSeq:       seq,
		ServerTimestamp: GetServerTimestamp(),
		ElementID:       op.ElementID,
		Drawing:         op.Drawing,
	})
	ack.Seq = seq
	sender.Send(ack)

	out := newMessage(TypeOpBroadcast, OperationBroadcastPayload{
		Operation: op,
		UserID:    sender.UserID,
		ServerSeq: seq,
	})
	out.UserID = sender.UserID
	out.ClientID = sender.ClientID
	out.Seq = seq
	h.broadcastToRoom(sender.PlanID, out, sender.ClientID)
}

func (h *Hub) broadcastToRoom(planID string, msg *Message, excludeClientID string) {
	h.mu.RLock()
	room, ok := h.rooms[planID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clients := make([]*Client, 0, len(room.clients))
	for _, c := range room.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}
