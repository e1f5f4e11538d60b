package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/inamate/planner/internal/document"
)

const maxBodySize = 5 << 20 // 5MB

type Handler struct {
	defaults Options
}

func NewHandler(defaults Options) *Handler {
	return &Handler{defaults: defaults}
}

type exportRequest struct {
	Name     string            `json:"name"`
	Elements []document.Record `json:"elements"`
	Width    int               `json:"width"`
	Height   int               `json:"height"`
	Fit      *bool             `json:"fit"`
}

// Export handles POST /export/{format}. The body carries the drawing's
// records; the rendered file is returned as an attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format, err := ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		http.Error(w, "invalid format: must be svg or png", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	drawing, err := document.FromRecords(req.Elements)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := h.defaults
	if req.Width > 0 {
		opts.Width = req.Width
	}
	if req.Height > 0 {
		opts.Height = req.Height
	}
	if req.Fit != nil {
		opts.Fit = *req.Fit
	}

	var buf bytes.Buffer
	if err := Write(&buf, format, drawing, opts); err != nil {
		slog.Warn("export failed", "format", format, "error", err)
		http.Error(w, fmt.Sprintf("export failed: %v", err), http.StatusBadRequest)
		return
	}

	name := sanitizeName(req.Name)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, name, format))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Write(buf.Bytes())

	slog.Info("export complete", "format", format, "elements", drawing.Len(), "size", buf.Len())
}

func sanitizeName(name string) string {
	if name == "" {
		return "plan"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}
