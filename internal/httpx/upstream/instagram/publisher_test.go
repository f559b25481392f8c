package instagram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_Publish(t *testing.T) {
	var statusChecks atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/v21.0/u1/media", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "https://cdn/v.mp4", r.URL.Query().Get("video_url"))
		assert.Equal(t, "REELS", r.URL.Query().Get("media_type"))
		assert.Equal(t, "caption", r.URL.Query().Get("caption"))
		_, _ = w.Write([]byte(`{"id":"c1"}`))
	})
	mux.HandleFunc("/v21.0/c1", func(w http.ResponseWriter, _ *http.Request) {
		if statusChecks.Add(1) < 2 {
			_, _ = w.Write([]byte(`{"id":"c1","status_code":"IN_PROGRESS"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"c1","status_code":"FINISHED"}`))
	})
	mux.HandleFunc("/v21.0/u1/media_publish", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "c1", r.URL.Query().Get("creation_id"))
		_, _ = w.Write([]byte(`{"id":"m1"}`))
	})
	mux.HandleFunc("/v21.0/m1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"m1","permalink":"https://instagram.com/reel/m1"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewPublisher(New(WithBaseURL(srv.URL)), WithPolling(5, time.Millisecond))
	out, err := p.Publish(context.Background(), PublishInput{
		UserID:      "u1",
		AccessToken: "tok",
		Caption:     "caption",
		ImageURL:    "https://cdn/img.png",
		VideoURL:    "https://cdn/v.mp4",
	})
	require.NoError(t, err)
	assert.Equal(t, "m1", out.InstagramMediaID)
	assert.Equal(t, "https://instagram.com/reel/m1", out.Permalink)
	assert.EqualValues(t, 2, statusChecks.Load())
}

func TestPublisher_RateLimitIsTemporary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Application request limit reached","type":"OAuthException","code":4}}`))
	}))
	defer srv.Close()

	_, err := NewPublisher(New(WithBaseURL(srv.URL))).Publish(context.Background(), PublishInput{UserID: "u1", ImageURL: "https://cdn/i.png"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.Temporary())
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestPublisher_ContainerNeverReady(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v21.0/u1/media", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"c1"}`))
	})
	mux.HandleFunc("/v21.0/c1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"c1","status_code":"IN_PROGRESS"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := NewPublisher(New(WithBaseURL(srv.URL)), WithPolling(3, time.Millisecond)).
		Publish(context.Background(), PublishInput{UserID: "u1", ImageURL: "https://cdn/i.png"})
	assert.ErrorIs(t, err, ErrContainerNotReady)
}
