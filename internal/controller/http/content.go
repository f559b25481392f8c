package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/automarketer/internal/domain/content/dao"
	"github.com/vadim/automarketer/internal/domain/content/entity"
	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
	"github.com/vadim/automarketer/internal/httpx/response"
)

// ContentService defines the content store operations used by the API
type ContentService interface {
	Save(ctx context.Context, businessID string, payload publish.ContentPayload) (publish.ContentPayload, error)
	Get(ctx context.Context, id string) (*entity.Record, error)
	List(ctx context.Context, filter dao.ListFilter) ([]entity.Record, error)
	Update(ctx context.Context, id string, u entity.Update) (*entity.Record, error)
	Delete(ctx context.Context, id string) error
	Business(ctx context.Context, id string) (*entity.Business, error)
	PutBusiness(ctx context.Context, b entity.Business) (*entity.Business, error)
}

// ContentHandler handles stored content and business profiles
type ContentHandler struct {
	service ContentService
}

// NewContentHandler creates a new content handler
func NewContentHandler(s ContentService) *ContentHandler {
	return &ContentHandler{service: s}
}

// RegisterRoutes registers content and business routes
func (h *ContentHandler) RegisterRoutes(r chi.Router) {
	r.Route("/content", func(r chi.Router) {
		r.Post("/", h.Create())
		r.Get("/", h.List())
		r.Get("/{id}", h.Get())
		r.Patch("/{id}", h.Update())
		r.Delete("/{id}", h.Delete())
	})
	r.Route("/businesses", func(r chi.Router) {
		r.Get("/{id}", h.GetBusiness())
		r.Put("/{id}", h.PutBusiness())
	})
}

// CreateContentRequest is the body of POST /content
type CreateContentRequest struct {
	BusinessID string `json:"business_id" validate:"required"`
	ContentRequest
}

// Create handles POST /content
func (h *ContentHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateContentRequest
		if !decode(w, r, &req) {
			return
		}

		saved, err := h.service.Save(r.Context(), req.BusinessID, req.toPayload())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		rec, err := h.service.Get(r.Context(), saved.ID)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		response.Created(w, rec)
	}
}

// ListContentResponse wraps a content listing
type ListContentResponse struct {
	Contents []entity.Record `json:"contents"`
	Limit    int             `json:"limit"`
	Offset   int             `json:"offset"`
}

// List handles GET /content
func (h *ContentHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		limit := 50
		offset := 0
		if l := q.Get("limit"); l != "" {
			li, err := strconv.Atoi(l)
			if err != nil || li < 1 {
				response.BadRequest(w, "invalid limit")
				return
			}
			if li > 100 {
				li = 100
			}
			limit = li
		}
		if o := q.Get("offset"); o != "" {
			oi, err := strconv.Atoi(o)
			if err != nil || oi < 0 {
				response.BadRequest(w, "invalid offset")
				return
			}
			offset = oi
		}

		recs, err := h.service.List(r.Context(), dao.ListFilter{
			BusinessID: q.Get("business_id"),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, ListContentResponse{Contents: recs, Limit: limit, Offset: offset})
	}
}

// Get handles GET /content/{id}
func (h *ContentHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleDomainError(w, err)
			return
		}
		response.OK(w, rec)
	}
}

// UpdateContentRequest is the body of PATCH /content/{id}. Absent fields are kept.
type UpdateContentRequest struct {
	Body         *string `json:"body"`
	ImageURL     *string `json:"image_url" validate:"omitempty,url"`
	AudioURL     *string `json:"audio_url" validate:"omitempty,url"`
	VideoURL     *string `json:"video_url" validate:"omitempty,url"`
	PlatformHint *string `json:"platform_hint"`
}

// Update handles PATCH /content/{id}
func (h *ContentHandler) Update() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateContentRequest
		if !decode(w, r, &req) {
			return
		}

		rec, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), entity.Update{
			Body:         req.Body,
			ImageURL:     req.ImageURL,
			AudioURL:     req.AudioURL,
			VideoURL:     req.VideoURL,
			PlatformHint: req.PlatformHint,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}
		response.OK(w, rec)
	}
}

// Delete handles DELETE /content/{id}
func (h *ContentHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			handleDomainError(w, err)
			return
		}
		response.NoContent(w)
	}
}

// GetBusiness handles GET /businesses/{id}
func (h *ContentHandler) GetBusiness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := h.service.Business(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleDomainError(w, err)
			return
		}
		if b == nil {
			handleDomainError(w, entity.ErrBusinessNotFound)
			return
		}
		response.OK(w, b)
	}
}

// PutBusinessRequest is the body of PUT /businesses/{id}
type PutBusinessRequest struct {
	Name     string `json:"name" validate:"required"`
	Industry string `json:"industry"`
}

// PutBusiness handles PUT /businesses/{id}
func (h *ContentHandler) PutBusiness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PutBusinessRequest
		if !decode(w, r, &req) {
			return
		}

		b, err := h.service.PutBusiness(r.Context(), entity.Business{
			ID:       chi.URLParam(r, "id"),
			Name:     req.Name,
			Industry: req.Industry,
		})
		if err != nil {
			handleDomainError(w, err)
			return
		}
		response.OK(w, b)
	}
}
