package collab

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/inamate/planner/internal/auth"
)

type Authenticator interface {
	ValidateToken(token string) (string, error)
	GetUser(ctx context.Context, userID string) (*auth.User, error)
}

type Authorizer interface {
	Authorize(ctx context.Context, planID, userID string) error
}

// Handler upgrades GET /ws/plan/{planId}?token=... to a collaboration
// session.
type Handler struct {
	hub     *Hub
	users   Authenticator
	plans   Authorizer
	origins []string
}

func NewHandler(hub *Hub, users Authenticator, plans Authorizer, origins []string) *Handler {
	return &Handler{hub: hub, users: users, plans: plans, origins: originHosts(origins)}
}

// originHosts strips schemes: websocket origin patterns match host[:port].
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if _, rest, ok := strings.Cut(o, "://"); ok {
			o = rest
		}
		hosts = append(hosts, strings.TrimSuffix(o, "/"))
	}
	return hosts
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	planID := mux.Vars(r)["planId"]

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.users.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if err := h.plans.Authorize(r.Context(), planID, userID); err != nil {
		http.Error(w, "not a plan member", http.StatusForbidden)
		return
	}

	user, err := h.users.GetUser(r.Context(), userID)
	if err != nil {
		slog.Error("load user for websocket", "error", err, "user", userID)
		http.Error(w, "user not found", http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, userID, user.DisplayName, planID)
	h.hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
