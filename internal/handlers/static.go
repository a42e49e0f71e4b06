package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// HandleUploads serves stored media files.
func (h *Handler) HandleUploads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/uploads/")

	// Prevent directory traversal and hide staging directories
	if name == "" || strings.Contains(name, "..") || strings.Contains(name, "\\") {
		h.writeError(w, "Invalid file path", http.StatusBadRequest)
		return
	}
	for _, part := range strings.Split(name, "/") {
		if part == "" || strings.HasPrefix(part, ".") {
			http.NotFound(w, r)
			return
		}
	}

	path := filepath.Join(h.store.UploadsDir(), filepath.FromSlash(name))
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, path)
}
