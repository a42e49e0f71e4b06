package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/artisan-upload/artisan/internal/landing"
	"github.com/artisan-upload/artisan/internal/storage"
)

func (h *Handler) HandleManifests(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := h.store.Manifests()
		if err != nil {
			slog.Error("Unable to list manifests", "err", err)
			h.writeError(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		h.writeJSON(w, http.StatusOK, entries)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleLanding renders the landing page of one stored submission.
func (h *Handler) HandleLanding(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/landing/")
	manifest, err := h.store.Manifest(name)
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		h.writeError(w, "Invalid manifest name", http.StatusBadRequest)
		return
	case errors.Is(err, storage.ErrNotFound):
		h.writeError(w, "Manifest not found", http.StatusNotFound)
		return
	case err != nil:
		slog.Error("Unable to load manifest", "manifest", name, "err", err)
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	contact := manifest.Contact()
	page := landing.Build(landing.Input{
		Backend: &landing.BackendResult{Images: landing.MediaRefs("/uploads", manifest.Images)},
		Contact: &contact,
	})
	templ.Handler(landing.Document(page)).ServeHTTP(w, r)
}
