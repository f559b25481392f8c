package generator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadim/automarketer/internal/domain/automation/service"
	publish "github.com/vadim/automarketer/internal/domain/publish/entity"
)

func chatServer(t *testing.T, content string, gotBody *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		if gotBody != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(gotBody))
		}

		choices := []map[string]any{}
		if content != "" {
			choices = append(choices, map[string]any{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "gpt-4o-mini",
			"choices": choices,
		})
	}))
}

func TestOpenAI_Generate(t *testing.T) {
	var body map[string]any
	srv := chatServer(t, "  Fresh beans just landed. #coffee  ", &body)
	defer srv.Close()

	g := NewOpenAI("sk-test", srv.URL+"/", "")
	payload, err := g.Generate(context.Background(), service.GenerateRequest{
		BusinessName: "Bean There",
		Industry:     "coffee",
		Platform:     publish.ChannelTwitter,
		Topic:        "Cold brew season",
	})
	require.NoError(t, err)
	assert.Equal(t, "Fresh beans just landed. #coffee", payload.Body)
	assert.Equal(t, "twitter", payload.PlatformHint)

	assert.Equal(t, "gpt-4o-mini", body["model"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].(map[string]any)["content"], "Bean There")
	assert.Contains(t, msgs[1].(map[string]any)["content"], "Topic: Cold brew season")
}

func TestOpenAI_EmptyCompletion(t *testing.T) {
	srv := chatServer(t, "", nil)
	defer srv.Close()

	_, err := NewOpenAI("sk-test", srv.URL+"/", "gpt-4o-mini").Generate(context.Background(), service.GenerateRequest{Topic: "x"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

type failing struct{}

func (failing) Generate(context.Context, service.GenerateRequest) (publish.ContentPayload, error) {
	return publish.ContentPayload{}, errors.New("quota exceeded")
}

func TestFallback(t *testing.T) {
	g := Fallback{
		Primary:   failing{},
		Secondary: Template{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	payload, err := g.Generate(context.Background(), service.GenerateRequest{
		BusinessName: "Bean There",
		Platform:     publish.ChannelBlog,
		Topic:        "Latte art",
	})
	require.NoError(t, err)
	assert.Contains(t, payload.Body, "# Latte art")
	assert.NoError(t, payload.Validate())
}

func TestTemplate_TwitterFits(t *testing.T) {
	payload, err := Template{}.Generate(context.Background(), service.GenerateRequest{Platform: publish.ChannelTwitter, Topic: "AI"})
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(payload.Body)), 280)
}
