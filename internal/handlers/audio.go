package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/artisan-upload/artisan/internal/media"
	"github.com/artisan-upload/artisan/internal/models"
)

func (h *Handler) writeStoryError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, models.StoryResult{Success: false, Error: message})
}

func (h *Handler) HandleProcessAudio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeStoryError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.stories == nil {
		h.writeStoryError(w, "Audio processing is not configured", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		slog.Warn("Unable to parse multipart request", "err", err)
		h.writeStoryError(w, "Missing audio file", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("Unable to remove multipart temp files", "err", err)
		}
	}()

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		// A file input submitted without a selection arrives as a plain value.
		if _, ok := r.MultipartForm.Value["audio_file"]; ok {
			h.writeStoryError(w, "No selected audio file", http.StatusBadRequest)
			return
		}
		h.writeStoryError(w, "Missing audio file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if header.Filename == "" {
		h.writeStoryError(w, "No selected audio file", http.StatusBadRequest)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("Unable to read audio upload", "err", err)
		h.writeStoryError(w, "Audio processing failed", http.StatusInternalServerError)
		return
	}

	blob := media.Blob{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	if blob.ContentType == "" || blob.ContentType == "application/octet-stream" {
		blob.ContentType = media.DetectContentType(blob.Name, blob.Data)
	}
	if err := media.Check(blob, media.KindAudio); err != nil {
		slog.Warn("Rejected audio upload", "err", err)
		h.writeStoryError(w, "Unsupported audio file", http.StatusBadRequest)
		return
	}

	start := time.Now()
	result, err := h.stories.Process(r.Context(), blob)
	h.metrics.StoryProcessed(r.Context(), h.stories.ProviderName(), time.Since(start), err)
	if err != nil {
		slog.Error("Audio processing failed", "file", header.Filename, "err", err)
		h.writeStoryError(w, "Audio processing failed", http.StatusInternalServerError)
		return
	}

	slog.Info("Audio processed", "id", result.ID, "artisan", result.ArtisanName, "took", time.Since(start))
	h.writeJSON(w, http.StatusOK, result)
}
