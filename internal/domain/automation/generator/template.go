package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vadim/automarketer/internal/domain/automation/service"
	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
)

// Template produces simple copy without any external call
type Template struct{}

// Generate implements service.Generator
func (Template) Generate(_ context.Context, req service.GenerateRequest) (publish.ContentPayload, error) {
	name := req.BusinessName
	if name == "" {
		name = "our team"
	}

	var body string
	switch req.Platform {
	case publish.ChannelTwitter:
		body = fmt.Sprintf("%s: what %s thinks about it. Follow along for more!", req.Topic, name)
	case publish.ChannelEmail, publish.ChannelBlog:
		body = fmt.Sprintf("# %s\n\nHere is what %s has been following on **%s** this week.\n\nReply to tell us what you think.", req.Topic, name, req.Topic)
	default:
		body = fmt.Sprintf("Everyone is talking about %s. Here is how %s sees it, and what it means for you.", req.Topic, name)
	}

	return publish.ContentPayload{Body: body, PlatformHint: string(req.Platform)}, nil
}

// Fallback uses Secondary when Primary fails
type Fallback struct {
	Primary   service.Generator
	Secondary service.Generator
	Logger    *slog.Logger
}

// Generate implements service.Generator
func (f Fallback) Generate(ctx context.Context, req service.GenerateRequest) (publish.ContentPayload, error) {
	payload, err := f.Primary.Generate(ctx, req)
	if err == nil {
		return payload, nil
	}
	if ctx.Err() != nil {
		return publish.ContentPayload{}, err
	}

	f.Logger.Warn("primary generator failed, using fallback", "platform", req.Platform, "error", err)
	return f.Secondary.Generate(ctx, req)
}
