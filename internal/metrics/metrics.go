package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "automarketer"

// Metrics holds all Prometheus metrics of the service.
// A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	// Publishing
	PublishOutcomes *prometheus.CounterVec
	PublishDuration *prometheus.HistogramVec

	// Schedule queue
	ScheduledPosts *prometheus.CounterVec

	// Automation
	AutomationTicks *prometheus.CounterVec

	// HTTP
	HTTPRequests *prometheus.CounterVec
}

// New creates the metrics on a private registry together with the Go and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		PublishOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_outcomes_total",
			Help:      "Publish outcomes per channel and result.",
		}, []string{"channel", "result"}),
		PublishDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "publish_target_duration_seconds",
			Help:      "Time spent publishing to one target.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"channel"}),
		ScheduledPosts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduled_posts_total",
			Help:      "Scheduled posts by completion status.",
		}, []string{"status"}),
		AutomationTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "automation_ticks_total",
			Help:      "Automation ticks by mode and result.",
		}, []string{"mode", "result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.PublishOutcomes,
		m.PublishDuration,
		m.ScheduledPosts,
		m.AutomationTicks,
		m.HTTPRequests,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveOutcome records one publish outcome
func (m *Metrics) ObserveOutcome(channel string, success bool, failure string, elapsed time.Duration) {
	if m == nil {
		return
	}

	result := "success"
	if !success {
		result = failure
		if result == "" {
			result = "failure"
		}
	}

	m.PublishOutcomes.WithLabelValues(channel, result).Inc()
	m.PublishDuration.WithLabelValues(channel).Observe(elapsed.Seconds())
}

// ObservePost records a scheduled post reaching a final status
func (m *Metrics) ObservePost(status string) {
	if m == nil {
		return
	}
	m.ScheduledPosts.WithLabelValues(status).Inc()
}

// ObserveTick records one automation tick
func (m *Metrics) ObserveTick(mode string, failed bool) {
	if m == nil {
		return
	}

	result := "ok"
	if failed {
		result = "failed"
	}
	m.AutomationTicks.WithLabelValues(mode, result).Inc()
}

// Middleware counts requests by their chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		if m == nil {
			return
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
