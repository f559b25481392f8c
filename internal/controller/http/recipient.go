package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/automarketer/internal/domain/recipient/entity"
	"github.com/vadim/automarketer/internal/httpx/response"
)

// RecipientService defines the recipient list operations used by the API
type RecipientService interface {
	List(ctx context.Context) ([]entity.Recipient, error)
	Add(ctx context.Context, email string) (*entity.Recipient, error)
	Remove(ctx context.Context, email string) error
}

// RecipientHandler handles the managed email recipient list
type RecipientHandler struct {
	service RecipientService
}

// NewRecipientHandler creates a new recipient handler
func NewRecipientHandler(s RecipientService) *RecipientHandler {
	return &RecipientHandler{service: s}
}

// RegisterRoutes registers recipient routes
func (h *RecipientHandler) RegisterRoutes(r chi.Router) {
	r.Route("/recipients", func(r chi.Router) {
		r.Get("/", h.List())
		r.Post("/", h.Add())
		r.Delete("/{email}", h.Remove())
	})
}

// ListRecipientsResponse wraps the recipient listing
type ListRecipientsResponse struct {
	Recipients []entity.Recipient `json:"recipients"`
}

// List handles GET /recipients
func (h *RecipientHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := h.service.List(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}
		response.OK(w, ListRecipientsResponse{Recipients: recs})
	}
}

// AddRecipientRequest is the body of POST /recipients
type AddRecipientRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Add handles POST /recipients
func (h *RecipientHandler) Add() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AddRecipientRequest
		if !decode(w, r, &req) {
			return
		}

		rec, err := h.service.Add(r.Context(), req.Email)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		response.Created(w, rec)
	}
}

// Remove handles DELETE /recipients/{email}
func (h *RecipientHandler) Remove() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h.service.Remove(r.Context(), chi.URLParam(r, "email")); err != nil {
			handleDomainError(w, err)
			return
		}
		response.NoContent(w)
	}
}
