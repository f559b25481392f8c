package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/automarketer/internal/httpx/response"
	"github.com/vadim/automarketer/internal/storage"
)

// MaxUploadSize is the maximum allowed upload size (100MB)
const MaxUploadSize = 100 << 20

// MediaUploader stores media and returns a public URL
type MediaUploader interface {
	Upload(ctx context.Context, in storage.UploadInput) (*storage.UploadOutput, error)
}

// MediaHandler handles media upload HTTP requests
type MediaHandler struct {
	uploader MediaUploader
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(uploader MediaUploader) *MediaHandler {
	return &MediaHandler{uploader: uploader}
}

// RegisterRoutes registers media routes
func (h *MediaHandler) RegisterRoutes(r chi.Router) {
	r.Post("/media/upload", h.Upload())
}

// UploadResponse tells which media reference the URL belongs in
type UploadResponse struct {
	URL   string `json:"url"`
	Key   string `json:"key"`
	Kind  string `json:"kind"`
	Field string `json:"field"` // image_url, video_url or audio_url
	Size  int64  `json:"size"`
}

// Upload handles POST /media/upload
func (h *MediaHandler) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			response.BadRequest(w, "file too large or invalid multipart form")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			response.BadRequest(w, "missing file in request")
			return
		}
		defer file.Close()

		contentType := header.Header.Get("Content-Type")
		if _, err := storage.KindOf(contentType); err != nil {
			handleDomainError(w, err)
			return
		}

		result, err := h.uploader.Upload(r.Context(), storage.UploadInput{
			Reader:      io.Reader(file),
			ContentType: contentType,
			Size:        header.Size,
			Filename:    header.Filename,
		})
		if err != nil {
			slog.Error("media upload failed", "filename", header.Filename, "error", err)
			handleDomainError(w, err)
			return
		}

		response.Created(w, UploadResponse{
			URL:   result.URL,
			Key:   result.Key,
			Kind:  string(result.Kind),
			Field: string(result.Kind) + "_url",
			Size:  result.Size,
		})
	}
}
