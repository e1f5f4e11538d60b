package plan

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inamate/planner/internal/auth"
	"github.com/inamate/planner/internal/document"
)

const maxWorkbookSize = 10 << 20 // 10MB

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name string `json:"name"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	plan, err := h.service.Create(r.Context(), req.Name, userID)
	if err != nil {
		slog.Error("create plan failed", "error", err, "user", userID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, plan)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	planID := mux.Vars(r)["planId"]

	plan, err := h.service.Get(r.Context(), planID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, plan)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	plans, err := h.service.List(r.Context(), userID)
	if err != nil {
		slog.Error("list plans failed", "error", err, "user", userID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, plans)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	planID := mux.Vars(r)["planId"]

	if err := h.service.Delete(r.Context(), planID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	planID := mux.Vars(r)["planId"]

	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	if err := h.service.InviteByEmail(r.Context(), planID, userID, req.Email); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "invited"})
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	planID := mux.Vars(r)["planId"]

	members, err := h.service.ListMembers(r.Context(), planID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, members)
}

// GetDrawings handles GET /api/plans/{planId}/drawings.
func (h *Handler) GetDrawings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	planID := mux.Vars(r)["planId"]

	wb, err := h.service.LoadWorkbook(r.Context(), planID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, wb)
}

// PutDrawings handles PUT /api/plans/{planId}/drawings.
func (h *Handler) PutDrawings(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	planID := mux.Vars(r)["planId"]

	r.Body = http.MaxBytesReader(w, r.Body, maxWorkbookSize)
	wb := document.NewWorkbook()
	if err := json.NewDecoder(r.Body).Decode(wb); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid workbook: " + err.Error()})
		return
	}

	version, err := h.service.SaveWorkbook(r.Context(), planID, userID, wb)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"version": version})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidID):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrNotMember):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "not a plan member"})
	case errors.Is(err, ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
	case errors.Is(err, ErrAlreadyMember):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "already a member"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
