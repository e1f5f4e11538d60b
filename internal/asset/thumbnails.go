package asset

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/inamate/planner/internal/document"
	"github.com/inamate/planner/internal/export"
	"github.com/inamate/planner/internal/typeid"
)

// ThumbnailOptions is the canvas used for plan previews.
var ThumbnailOptions = export.Options{Width: 320, Height: 240, Padding: 12, Fit: true}

// Thumbnails stores one PNG preview per plan, rendered from the plan's
// first drawing.
type Thumbnails struct {
	dir string
}

func NewThumbnails(dir string) *Thumbnails {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create thumbnail dir", "error", err, "dir", dir)
	}
	return &Thumbnails{dir: dir}
}

func (t *Thumbnails) path(planID string) string {
	return filepath.Join(t.dir, planID+".png")
}

// Save renders and writes the preview. The file is replaced atomically so
// readers never see a partial image.
func (t *Thumbnails) Save(planID string, wb *document.Workbook) error {
	if err := typeid.Validate(planID, typeid.PrefixPlan); err != nil {
		return err
	}
	drawing, ok := wb.Drawing(0)
	if !ok {
		drawing = document.Empty()
	}

	tmp, err := os.CreateTemp(t.dir, planID+"-*.png")
	if err != nil {
		return fmt.Errorf("create thumbnail: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := export.PNG(tmp, drawing, ThumbnailOptions); err != nil {
		tmp.Close()
		return fmt.Errorf("render thumbnail: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}
	if err := os.Rename(tmp.Name(), t.path(planID)); err != nil {
		return fmt.Errorf("store thumbnail: %w", err)
	}
	return nil
}

// Remove deletes a plan's preview. A missing file is not an error.
func (t *Thumbnails) Remove(planID string) error {
	err := os.Remove(t.path(planID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove thumbnail: %w", err)
	}
	return nil
}

// Serve returns an http.Handler for GET /thumbnails/{planId}.png.
func (t *Thumbnails) Serve() http.Handler {
	fs := http.FileServer(http.Dir(t.dir))
	return http.StripPrefix("/thumbnails/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		planID, ok := strings.CutSuffix(r.URL.Path, ".png")
		if !ok || typeid.Validate(planID, typeid.PrefixPlan) != nil {
			http.NotFound(w, r)
			return
		}
		// Previews are rewritten on every save.
		w.Header().Set("Cache-Control", "public, max-age=60")
		fs.ServeHTTP(w, r)
	}))
}
