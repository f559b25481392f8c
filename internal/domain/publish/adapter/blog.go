package adapter

import (
	"context"

	"github.com/vadim/automarketer/internal/domain/publish/entity"
)

// DefaultBlogTitle is used when the target carries no title
const DefaultBlogTitle = "New Blog Post"

// BlogPoster inserts an HTML post and returns its URL
type BlogPoster interface {
	InsertPost(ctx context.Context, title, html string) (string, error)
}

// Blog publishes the payload as a blog post
type Blog struct {
	poster BlogPoster
}

// NewBlog creates the blog adapter
func NewBlog(poster BlogPoster) *Blog {
	return &Blog{poster: poster}
}

// Channel implements Adapter
func (b *Blog) Channel() entity.Channel {
	return entity.ChannelBlog
}

// Publish implements Adapter
func (b *Blog) Publish(ctx context.Context, payload entity.ContentPayload, target entity.Target) entity.Outcome {
	if err := payload.Validate(); err != nil {
		return entity.Invalid(entity.ChannelBlog, err.Error())
	}

	title := target.Title
	if title == "" {
		title = DefaultBlogTitle
	}

	body, err := RenderHTML(payload)
	if err != nil {
		return entity.Invalid(entity.ChannelBlog, err.Error())
	}

	url, err := b.poster.InsertPost(ctx, title, body)
	if err != nil {
		return entity.Failed(entity.ChannelBlog, err)
	}

	if url == "" {
		return entity.Succeeded(entity.ChannelBlog, "blog post published")
	}
	return entity.Succeeded(entity.ChannelBlog, "blog post published: "+url)
}
