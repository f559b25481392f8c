package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
	"github.com/vadim/automarketer/internal/httpx/response"
)

// Publisher defines the orchestrator operations used by the API
type Publisher interface {
	Channels() []publish.Channel
	Publish(ctx context.Context, payload publish.ContentPayload, targets []publish.Target) (*publish.Report, error)
}

// ContentResolver loads stored content by ID
type ContentResolver interface {
	Payload(ctx context.Context, id string) (publish.ContentPayload, error)
}

// PublishHandler handles immediate publishing
type PublishHandler struct {
	publisher Publisher
	content   ContentResolver
}

// NewPublishHandler creates a new publish handler
func NewPublishHandler(p Publisher, c ContentResolver) *PublishHandler {
	return &PublishHandler{publisher: p, content: c}
}

// RegisterRoutes registers publish routes
func (h *PublishHandler) RegisterRoutes(r chi.Router) {
	r.Post("/publish", h.Publish())
	r.Get("/publish/channels", h.Channels())
}

// MediaRequest holds media URLs of inline content
type MediaRequest struct {
	ImageURL string `json:"image_url" validate:"omitempty,url"`
	AudioURL string `json:"audio_url" validate:"omitempty,url"`
	VideoURL string `json:"video_url" validate:"omitempty,url"`
}

// ContentRequest is inline content
type ContentRequest struct {
	Body         string       `json:"body"`
	Media        MediaRequest `json:"media"`
	PlatformHint string       `json:"platform_hint"`
}

func (c *ContentRequest) toPayload() publish.ContentPayload {
	return publish.ContentPayload{
		Body: c.Body,
		Media: publish.MediaRefs{
			ImageURL: c.Media.ImageURL,
			AudioURL: c.Media.AudioURL,
			VideoURL: c.Media.VideoURL,
		},
		PlatformHint: c.PlatformHint,
	}
}

// TargetRequest is one publish target
type TargetRequest struct {
	Channel    string   `json:"channel" validate:"required"`
	Recipients []string `json:"recipients" validate:"omitempty,dive,email"`
	Subject    string   `json:"subject"`
	Title      string   `json:"title"`
}

// DistributionRequest is the content and targets part shared by publish and schedule.
// Platforms is a shorthand for targets without channel-specific fields.
type DistributionRequest struct {
	ContentID string          `json:"content_id"`
	Content   *ContentRequest `json:"content" validate:"required_without=ContentID"`
	Targets   []TargetRequest `json:"targets" validate:"dive"`
	Platforms []string        `json:"platforms"`
}

func (d *DistributionRequest) targets() []publish.Target {
	out := make([]publish.Target, 0, len(d.Targets)+len(d.Platforms))
	for _, t := range d.Targets {
		out = append(out, publish.Target{
			Channel:    publish.ParseChannel(t.Channel),
			Recipients: t.Recipients,
			Subject:    t.Subject,
			Title:      t.Title,
		})
	}
	for _, p := range d.Platforms {
		out = append(out, publish.Target{Channel: publish.ParseChannel(p)})
	}
	return out
}

// payload returns the inline content, or the stored content when content_id is set
func (d *DistributionRequest) payload(ctx context.Context, c ContentResolver) (publish.ContentPayload, error) {
	if d.ContentID != "" {
		return c.Payload(ctx, d.ContentID)
	}
	return d.Content.toPayload(), nil
}

// Publish handles POST /publish
func (h *PublishHandler) Publish() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DistributionRequest
		if !decode(w, r, &req) {
			return
		}

		payload, err := req.payload(r.Context(), h.content)
		if err != nil {
			handleDomainError(w, err)
			return
		}

		report, err := h.publisher.Publish(r.Context(), payload, req.targets())
		if err != nil {
			handleDomainError(w, err)
			return
		}

		response.OK(w, report)
	}
}

// ChannelsResponse lists the registered channels
type ChannelsResponse struct {
	Channels []publish.Channel `json:"channels"`
}

// Channels handles GET /publish/channels
func (h *PublishHandler) Channels() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, ChannelsResponse{Channels: h.publisher.Channels()})
	}
}
