package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveOutcome(t *testing.T) {
	m := New()

	m.ObserveOutcome("twitter", true, "", 120*time.Millisecond)
	m.ObserveOutcome("twitter", false, "transient", time.Second)
	m.ObserveOutcome("email", false, "", time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishOutcomes.WithLabelValues("twitter", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishOutcomes.WithLabelValues("twitter", "transient")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishOutcomes.WithLabelValues("email", "failure")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.PublishDuration))
}

func TestMetrics_PostsAndTicks(t *testing.T) {
	m := New()

	m.ObservePost("published")
	m.ObservePost("published")
	m.ObservePost("failed")
	m.ObserveTick("post_now", false)
	m.ObserveTick("post_now", true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ScheduledPosts.WithLabelValues("published")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ScheduledPosts.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AutomationTicks.WithLabelValues("post_now", "failed")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveOutcome("blog", true, "", time.Second)
		m.ObservePost("failed")
		m.ObserveTick("schedule_peak", true)
	})
}

func TestMetrics_MiddlewareAndHandler(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/schedule/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Method(http.MethodGet, "/metrics", m.Handler())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/schedule/abc", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/schedule/{id}", "404")))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "automarketer_http_requests_total")
}
