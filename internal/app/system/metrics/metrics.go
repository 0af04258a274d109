// Package metrics exposes Prometheus counters for HTTP traffic, matching
// queries and outbound alerts. All methods are safe on a nil *Metrics.
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

// Alert outcomes.
const (
	OutcomeSent   = "sent"
	OutcomeFailed = "failed"
)

// Alert channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	reg          *prometheus.Registry
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	matchQueries *prometheus.CounterVec
	alertsSent   *prometheus.CounterVec
}

// New registers the app collectors plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinshealth_http_requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kinshealth_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		matchQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinshealth_match_queries_total",
			Help: "Matching and forum engine queries by engine.",
		}, []string{"engine"}),
		alertsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kinshealth_alerts_sent_total",
			Help: "Outbound email and SMS alerts by channel and outcome.",
		}, []string{"channel", "outcome"}),
	}
	reg.MustRegister(
		m.httpRequests, m.httpDuration, m.matchQueries, m.alertsSent,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency keyed by chi route pattern
// so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// MatchQuery counts one engine query.
func (m *Metrics) MatchQuery(engine string) {
	if m == nil {
		return
	}
	m.matchQueries.WithLabelValues(engine).Inc()
}

// AlertSent counts one outbound alert attempt.
func (m *Metrics) AlertSent(channel, outcome string) {
	if m == nil {
		return
	}
	m.alertsSent.WithLabelValues(channel, outcome).Inc()
}

// AlertsSentCounter exposes one alert series for assertions.
func (m *Metrics) AlertsSentCounter(channel, outcome string) prometheus.Counter {
	return m.alertsSent.WithLabelValues(channel, outcome)
}
