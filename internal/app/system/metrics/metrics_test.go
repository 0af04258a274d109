package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil))
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/jobs/{id}", "GET", "418"))
	assert.Equal(t, 2.0, got)
}

func TestCounters(t *testing.T) {
	m := New()
	m.MatchQuery("jobmatch")
	m.AlertSent("email", OutcomeSent)
	m.AlertSent("email", OutcomeFailed)
	m.AlertSent("email", OutcomeFailed)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.matchQueries.WithLabelValues("jobmatch")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.alertsSent.WithLabelValues("email", OutcomeFailed)))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.MatchQuery("forum")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "kinshealth_match_queries_total"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.MatchQuery("x")
	m.AlertSent("sms", OutcomeSent)
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
