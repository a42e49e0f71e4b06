package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/artisan-upload/artisan/internal/storage"
)

func (h *Handler) HandleSaveArtisanData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		slog.Warn("Unable to parse multipart request", "err", err)
		h.metrics.SubmissionFailed(r.Context(), "invalid_request")
		h.writeError(w, "Invalid multipart request", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Warn("Unable to remove multipart temp files", "err", err)
		}
	}()

	raw := strings.TrimSpace(firstValue(r.MultipartForm, "artisanData"))
	if raw == "" {
		h.metrics.SubmissionFailed(r.Context(), "missing_data")
		h.writeError(w, "No artisan data provided", http.StatusBadRequest)
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil || fields == nil {
		h.metrics.SubmissionFailed(r.Context(), "invalid_data")
		h.writeError(w, "Invalid artisan data", http.StatusBadRequest)
		return
	}

	images := r.MultipartForm.File["images"]
	if len(images) > h.maxImages {
		h.metrics.SubmissionFailed(r.Context(), "too_many_images")
		h.writeError(w, fmt.Sprintf("Too many images (max %d)", h.maxImages), http.StatusBadRequest)
		return
	}

	audio := r.MultipartForm.File["audioFile"]
	if len(audio) > 1 {
		h.metrics.SubmissionFailed(r.Context(), "too_many_audio_files")
		h.writeError(w, "Only one audio file is allowed", http.StatusBadRequest)
		return
	}

	sub := storage.Submission{Fields: fields}
	if len(audio) == 1 {
		in := incoming(audio[0])
		sub.Audio = &in
	}
	for _, fh := range images {
		sub.Images = append(sub.Images, incoming(fh))
	}

	resp, err := h.store.SaveSubmission(r.Context(), sub)
	if err != nil {
		slog.Error("Unable to save artisan data", "err", err)
		h.metrics.SubmissionFailed(r.Context(), "internal")
		h.writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.metrics.SubmissionSaved(r.Context(), len(resp.Images), resp.AudioFile != nil)
	h.writeJSON(w, http.StatusOK, resp)
}

func incoming(fh *multipart.FileHeader) storage.Incoming {
	return storage.Incoming{
		Filename: fh.Filename,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func firstValue(form *multipart.Form, key string) string {
	if form == nil || len(form.Value[key]) == 0 {
		return ""
	}
	return form.Value[key][0]
}
