package adapter

import (
	"context"

	"github.com/vadim/automarketer/internal/domain/publish/entity"
)

// InstagramPost is a single-media Instagram publication
type InstagramPost struct {
	Caption  string
	ImageURL string
	VideoURL string
}

// InstagramPublisher publishes through the Instagram Graph API and returns the permalink
type InstagramPublisher interface {
	Publish(ctx context.Context, post InstagramPost) (string, error)
}

// InstagramGraph publishes directly to an Instagram business account
type InstagramGraph struct {
	publisher InstagramPublisher
}

// NewInstagramGraph creates the Graph API instagram adapter
func NewInstagramGraph(publisher InstagramPublisher) *InstagramGraph {
	return &InstagramGraph{publisher: publisher}
}

// Channel implements Adapter
func (g *InstagramGraph) Channel() entity.Channel {
	return entity.ChannelInstagram
}

// Publish implements Adapter
func (g *InstagramGraph) Publish(ctx context.Context, payload entity.ContentPayload, _ entity.Target) entity.Outcome {
	if err := payload.Validate(); err != nil {
		return entity.Invalid(entity.ChannelInstagram, err.Error())
	}
	if !payload.Media.HasVisual() {
		return entity.Invalid(entity.ChannelInstagram, "instagram requires an image or video")
	}

	permalink, err := g.publisher.Publish(ctx, InstagramPost{
		Caption:  payload.Body,
		ImageURL: payload.Media.ImageURL,
		VideoURL: payload.Media.VideoURL,
	})
	if err != nil {
		return entity.Failed(entity.ChannelInstagram, err)
	}

	if permalink == "" {
		return entity.Succeeded(entity.ChannelInstagram, "posted to instagram")
	}
	return entity.Succeeded(entity.ChannelInstagram, "posted to instagram: "+permalink)
}
