package http

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/automarketer/internal/domain/schedule/entity"
	"github.com/vadim/automarketer/internal/domain/schedule/service"
	"github.com/vadim/automarketer/internal/httpx/response"
)

// ScheduleQueue defines the queue operations used by the API
type ScheduleQueue interface {
	Schedule(ctx context.Context, in service.ScheduleInput) (*entity.ScheduledPost, error)
	List(ctx context.Context, filter service.ListFilter) ([]entity.ScheduledPost, error)
	Get(ctx context.Context, id string) (*entity.ScheduledPost, error)
	Cancel(ctx context.Context, id string) (*entity.ScheduledPost, error)
}

// ScheduleHandler handles scheduled posts
type ScheduleHandler struct {
	queue   ScheduleQueue
	content ContentResolver
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(q ScheduleQueue, c ContentResolver) *ScheduleHandler {
	return &ScheduleHandler{queue: q, content: c}
}

// RegisterRoutes registers schedule routes
func (h *ScheduleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/schedule", func(r chi.Router) {
		r.Post("/", h.Create())
		r.Get("/", h.List())
		r.Get("/{id}", h.Get())
		r.Post("/{id}/cancel", h.Cancel())
	})
}

// ScheduleRequest is the body of POST /schedule.
// HoursFromNow overrides the peak hour choice.
type ScheduleRequest struct {
	BusinessID string `json:"business_id" validate:"required"`
	DistributionRequest
	HoursFromNow *float64 `json:"hours_from_now"`
}

// Create handles POST /schedule
func (h *ScheduleHandler) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleRequest
		if !decode(w, r, &req) {
			return
		}

		payload, err := req.payload(r.Context(), h.content)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		in := service.ScheduleInput{
			BusinessID: req.BusinessID,
			Content:    payload,
			Targets:    req.targets(),
		}
		if req.HoursFromNow != nil {
			d := time.Duration(*req.HoursFromNow * float64(time.Hour))
			in.Delay = &d
		}

		post, err := h.queue.Schedule(r.Context(), in)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.Created(w, post)
	}
}

// ListScheduleResponse wraps a post listing
type ListScheduleResponse struct {
	Posts []entity.ScheduledPost `json:"posts"`
	Limit int                    `json:"limit"`
}

// List handles GET /schedule
func (h *ScheduleHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		filter := service.ListFilter{
			BusinessID: q.Get("business_id"),
			Limit:      50,
		}

		if s := q.Get("status"); s != "" {
			st, err := entity.ParseStatus(s)
			if err != nil {
				response.BadRequest(w, err.Error())
				return
			}
			filter.Status = &st
		}

		if l := q.Get("limit"); l != "" {
			li, err := strconv.Atoi(l)
			if err != nil || li < 1 {
				response.BadRequest(w, "invalid limit")
				return
			}
			if li > 200 {
				li = 200
			}
			filter.Limit = li
		}

		posts, err := h.queue.List(r.Context(), filter)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		if posts == nil {
			posts = []entity.ScheduledPost{}
		}

		response.OK(w, ListScheduleResponse{Posts: posts, Limit: filter.Limit})
	}
}

// Get handles GET /schedule/{id}
func (h *ScheduleHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := h.queue.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleDomainError(w, err)
			return
		}
		response.OK(w, post)
	}
}

// Cancel handles POST /schedule/{id}/cancel
func (h *ScheduleHandler) Cancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		post, err := h.queue.Cancel(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			handleDomainError(w, err)
			return
		}
		response.OK(w, post)
	}
}
