package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/artisan-upload/artisan/internal/config"
	"github.com/artisan-upload/artisan/internal/storage"
	"github.com/artisan-upload/artisan/internal/story"
	"github.com/artisan-upload/artisan/internal/telemetry"
)

// multipart parts beyond this size are spooled to disk by net/http
const multipartMemory = 32 << 20

type Handler struct {
	store     *storage.Store
	stories   *story.Service
	metrics   telemetry.Recorder
	maxImages int
	maxBytes  int64
}

// New wires the handlers. stories may be nil, which disables the audio
// processing endpoint, and metrics may be nil for no telemetry.
func New(store *storage.Store, stories *story.Service, metrics telemetry.Recorder, cfg config.Server) *Handler {
	if metrics == nil {
		metrics = telemetry.NoOp{}
	}
	return &Handler{
		store:     store,
		stories:   stories,
		metrics:   metrics,
		maxImages: cfg.MaxImages,
		maxBytes:  cfg.MaxUploadBytes(),
	}
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/save_artisan_data", h.HandleSaveArtisanData)
	mux.HandleFunc("/api/manifests", h.HandleManifests)
	mux.HandleFunc("/process-audio-upload", h.HandleProcessAudio)
	mux.HandleFunc("/landing/", h.HandleLanding)
	mux.HandleFunc("/uploads/", h.HandleUploads)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	return mux
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Warn(message, "status", code)
	}
	h.writeJSON(w, code, messageResponse{Message: message})
}

// CORS allows the upload front-end to be served from another origin.
func CORS(allowedOrigin string, next http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
