package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/automarketer/internal/domain/peakhour/entity"
	"github.com/vadim/automarketer/internal/httpx/response"
)

// PeakHourRegistry defines the peak hour operations used by the API
type PeakHourRegistry interface {
	Location() *time.Location
	Defaults() entity.Set
	Get(ctx context.Context, platform string) (entity.Set, error)
	List(ctx context.Context) ([]entity.PeakHours, error)
	Toggle(ctx context.Context, platform string, hour int) (entity.Set, error)
	IsPeak(ctx context.Context, platform string, t time.Time) (bool, error)
}

// PeakHourHandler handles peak hour configuration
type PeakHourHandler struct {
	registry PeakHourRegistry
	now      func() time.Time
}

// NewPeakHourHandler creates a new peak hour handler
func NewPeakHourHandler(r PeakHourRegistry) *PeakHourHandler {
	return &PeakHourHandler{registry: r, now: time.Now}
}

// RegisterRoutes registers peak hour routes
func (h *PeakHourHandler) RegisterRoutes(r chi.Router) {
	r.Route("/peak-hours", func(r chi.Router) {
		r.Get("/", h.List())
		r.Get("/{platform}", h.Get())
		r.Post("/{platform}/toggle", h.Toggle())
	})
}

// PeakHoursListResponse lists every configured platform
type PeakHoursListResponse struct {
	Timezone  string             `json:"timezone"`
	Defaults  entity.Set         `json:"defaults"`
	Platforms []entity.PeakHours `json:"platforms"`
}

// List handles GET /peak-hours
func (h *PeakHourHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sets, err := h.registry.List(r.Context())
		if err != nil {
			handleDomainError(w, err)
			return
		}
		if sets == nil {
			sets = []entity.PeakHours{}
		}

		response.OK(w, PeakHoursListResponse{
			Timezone:  h.registry.Location().String(),
			Defaults:  h.registry.Defaults(),
			Platforms: sets,
		})
	}
}

// PlatformPeakHoursResponse is the peak hour set of one platform
type PlatformPeakHoursResponse struct {
	Platform  string     `json:"platform"`
	Hours     entity.Set `json:"hours"`
	IsPeakNow bool       `json:"is_peak_now"`
}

// Get handles GET /peak-hours/{platform}
func (h *PeakHourHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		platform, err := entity.NormalizePlatform(chi.URLParam(r, "platform"))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		hours, err := h.registry.Get(r.Context(), platform)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		peak, err := h.registry.IsPeak(r.Context(), platform, h.now())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, PlatformPeakHoursResponse{Platform: platform, Hours: hours, IsPeakNow: peak})
	}
}

// ToggleRequest is the body of POST /peak-hours/{platform}/toggle
type ToggleRequest struct {
	Hour *int `json:"hour" validate:"required"`
}

// Toggle handles POST /peak-hours/{platform}/toggle
func (h *PeakHourHandler) Toggle() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ToggleRequest
		if !decode(w, r, &req) {
			return
		}

		platform, err := entity.NormalizePlatform(chi.URLParam(r, "platform"))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		hours, err := h.registry.Toggle(r.Context(), platform, *req.Hour)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, PlatformPeakHoursResponse{
			Platform:  platform,
			Hours:     hours,
			IsPeakNow: hours.Contains(h.now().In(h.registry.Location()).Hour()),
		})
	}
}
