package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/vadim/automarketer/internal/domain/automation/service"
	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
)

const defaultModel = "gpt-4o-mini"

// ErrEmptyCompletion is returned when the model answers with no text
var ErrEmptyCompletion = errors.New("openai: empty completion")

var platformGuides = map[publish.Channel]string{
	publish.ChannelTwitter:   "Write one tweet under 280 characters with at most two hashtags.",
	publish.ChannelLinkedIn:  "Write a professional LinkedIn post of 3 short paragraphs ending with a question.",
	publish.ChannelInstagram: "Write an engaging Instagram caption with emojis and 5 relevant hashtags.",
	publish.ChannelEmail:     "Write a short marketing newsletter in Markdown with a heading and a call to action.",
	publish.ChannelBlog:      "Write a blog article in Markdown with an introduction, three sections and a conclusion.",
}

// OpenAI generates platform-specific marketing copy with a chat model
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI creates a generator. baseURL may be empty.
func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = defaultModel
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Generate implements service.Generator
func (g *OpenAI) Generate(ctx context.Context, req service.GenerateRequest) (publish.ContentPayload, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt(req)),
			openai.UserMessage(userPrompt(req)),
		},
	})
	if err != nil {
		return publish.ContentPayload{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return publish.ContentPayload{}, ErrEmptyCompletion
	}

	body := strings.TrimSpace(resp.Choices[0].Message.Content)
	if body == "" {
		return publish.ContentPayload{}, ErrEmptyCompletion
	}

	return publish.ContentPayload{Body: body, PlatformHint: string(req.Platform)}, nil
}

func systemPrompt(req service.GenerateRequest) string {
	var b strings.Builder
	b.WriteString("You are a marketing copywriter")
	if req.BusinessName != "" {
		fmt.Fprintf(&b, " for %s", req.BusinessName)
	}
	if req.Industry != "" {
		fmt.Fprintf(&b, ", a business in the %s industry", req.Industry)
	}
	b.WriteString(". Reply with the post text only.")
	return b.String()
}

func userPrompt(req service.GenerateRequest) string {
	guide, ok := platformGuides[req.Platform]
	if !ok {
		guide = "Write a short marketing post."
	}
	return fmt.Sprintf("%s\nTopic: %s", guide, req.Topic)
}
