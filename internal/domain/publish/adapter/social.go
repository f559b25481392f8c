package adapter

import (
	"context"
	"fmt"

	"github.com/vadim/automarketer/internal/domain/publish/entity"
)

const (
	twitterMaxRunes = 280
	ellipsis        = "..."
)

// SocialPost is a request to a social posting service
type SocialPost struct {
	Text      string
	Platforms []string
	MediaURLs []string
	IsVideo   bool
}

// SocialPoster posts to a social network and returns the post URL if known
type SocialPoster interface {
	Post(ctx context.Context, post SocialPost) (string, error)
}

// Social publishes to twitter, linkedin or instagram through a posting service
type Social struct {
	channel entity.Channel
	poster  SocialPoster
}

// NewSocial creates a social adapter for one channel
func NewSocial(channel entity.Channel, poster SocialPoster) *Social {
	return &Social{channel: channel, poster: poster}
}

// Channel implements Adapter
func (s *Social) Channel() entity.Channel {
	return s.channel
}

// Publish implements Adapter
func (s *Social) Publish(ctx context.Context, payload entity.ContentPayload, _ entity.Target) entity.Outcome {
	if err := payload.Validate(); err != nil {
		return entity.Invalid(s.channel, err.Error())
	}
	if s.channel == entity.ChannelInstagram && !payload.Media.HasVisual() {
		return entity.Invalid(s.channel, "instagram requires an image or video")
	}

	post := SocialPost{
		Text:      payload.Body,
		Platforms: []string{string(s.channel)},
	}
	if s.channel == entity.ChannelTwitter {
		post.Text = truncateRunes(post.Text, twitterMaxRunes)
	}

	// Video takes priority over image
	switch {
	case payload.Media.VideoURL != "":
		post.MediaURLs = []string{payload.Media.VideoURL}
		post.IsVideo = true
	case payload.Media.ImageURL != "":
		post.MediaURLs = []string{payload.Media.ImageURL}
	}

	postURL, err := s.poster.Post(ctx, post)
	if err != nil {
		return entity.Failed(s.channel, err)
	}

	if postURL != "" {
		return entity.Succeeded(s.channel, fmt.Sprintf("posted to %s: %s", s.channel, postURL))
	}
	return entity.Succeeded(s.channel, fmt.Sprintf("posted to %s", s.channel))
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-len(ellipsis)]) + ellipsis
}
