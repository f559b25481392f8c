package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vadim/automarketer/internal/domain/automation/entity"
	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
	"github.com/vadim/automarketer/internal/httpx/response"
)

// AutomationManager defines the automation operations used by the API
type AutomationManager interface {
	Start(cfg entity.Config) (entity.Session, error)
	Stop(businessID string) entity.Session
	Get(businessID string) (entity.Session, error)
	List() []entity.Session
}

// AutomationDefaults fill fields a start request leaves out
type AutomationDefaults struct {
	Interval  time.Duration
	Platforms []string
	Mode      entity.Mode
}

// AutomationHandler handles automation sessions
type AutomationHandler struct {
	manager  AutomationManager
	defaults AutomationDefaults
}

// NewAutomationHandler creates a new automation handler
func NewAutomationHandler(m AutomationManager, d AutomationDefaults) *AutomationHandler {
	return &AutomationHandler{manager: m, defaults: d}
}

// RegisterRoutes registers automation routes
func (h *AutomationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/automation", func(r chi.Router) {
		r.Get("/", h.List())
		r.Get("/{businessID}", h.Get())
		r.Post("/{businessID}/start", h.Start())
		r.Post("/{businessID}/stop", h.Stop())
	})
}

// StartAutomationRequest is the body of POST /automation/{businessID}/start
type StartAutomationRequest struct {
	IntervalSeconds *int64          `json:"interval_seconds"`
	Mode            string          `json:"mode"`
	Topic           string          `json:"topic"`
	Platforms       []string        `json:"platforms"`
	Targets         []TargetRequest `json:"targets" validate:"dive"`
	PeakOnly        bool            `json:"peak_only"`
}

func (h *AutomationHandler) config(businessID string, req StartAutomationRequest) entity.Config {
	cfg := entity.Config{
		BusinessID: businessID,
		Interval:   h.defaults.Interval,
		Mode:       h.defaults.Mode,
		Topic:      req.Topic,
		PeakOnly:   req.PeakOnly,
	}
	if req.IntervalSeconds != nil {
		cfg.Interval = time.Duration(*req.IntervalSeconds) * time.Second
	}
	if req.Mode != "" {
		cfg.Mode = entity.Mode(req.Mode)
	}

	dist := DistributionRequest{Targets: req.Targets, Platforms: req.Platforms}
	cfg.Targets = dist.targets()
	if len(cfg.Targets) == 0 {
		for _, p := range h.defaults.Platforms {
			cfg.Targets = append(cfg.Targets, publish.Target{Channel: publish.ParseChannel(p)})
		}
	}
	return cfg
}

// Start handles POST /automation/{businessID}/start
func (h *AutomationHandler) Start() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartAutomationRequest
		if !decode(w, r, &req) {
			return
		}

		session, err := h.manager.Start(h.config(chi.URLParam(r, "businessID"), req))
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, session)
	}
}

// Stop handles POST /automation/{businessID}/stop
func (h *AutomationHandler) Stop() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, h.manager.Stop(chi.URLParam(r, "businessID")))
	}
}

// Get handles GET /automation/{businessID}
func (h *AutomationHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, err := h.manager.Get(chi.URLParam(r, "businessID"))
		if err != nil {
			handleDomainError(w, err)
			return
		}
		response.OK(w, session)
	}
}

// ListAutomationResponse wraps the session listing
type ListAutomationResponse struct {
	Sessions []entity.Session `json:"sessions"`
}

// List handles GET /automation
func (h *AutomationHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions := h.manager.List()
		if sessions == nil {
			sessions = []entity.Session{}
		}
		response.OK(w, ListAutomationResponse{Sessions: sessions})
	}
}
