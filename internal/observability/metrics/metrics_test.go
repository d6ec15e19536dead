package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRequestsWithBoundedPaths(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	handler := m.Middleware("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	for _, path := range []string{"/v1/conversions", "/wp-admin", "/.env"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", "GET", "/v1/conversions", "418")); got != 1 {
		t.Fatalf("expected 1 request for known path, got %v", got)
	}
	if got := testutil.ToFloat64(m.requestTotal.WithLabelValues("api", "GET", "other", "418")); got != 2 {
		t.Fatalf("expected unknown paths folded into other, got %v", got)
	}
}

func TestRecordConversionAndAuth(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.RecordConversion("api", "length", "success")
	m.RecordConversion("api", "length", "success")
	m.RecordConversion("api", "", "rejected")
	m.RecordAuthAttempt("api", "login", "failure")

	if got := testutil.ToFloat64(m.conversionsTotal.WithLabelValues("api", "length", "success")); got != 2 {
		t.Fatalf("conversions success = %v", got)
	}
	if got := testutil.ToFloat64(m.conversionsTotal.WithLabelValues("api", "unknown", "rejected")); got != 1 {
		t.Fatalf("conversions rejected = %v", got)
	}
	if got := testutil.ToFloat64(m.authAttemptsTotal.WithLabelValues("api", "login", "failure")); got != 1 {
		t.Fatalf("auth failures = %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewHTTPServerMetrics("api")
	m.RecordRateLimited("api", "/v1/sessions")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "unitconv_http_rate_limited_total") {
		t.Fatalf("metrics output missing counter:\n%s", rec.Body.String())
	}
}

func TestWorkerMetrics(t *testing.T) {
	m := NewWorkerMetrics("worker")
	m.ObserveEvent("worker", "INFO", 10*time.Millisecond, nil)
	m.ObserveEvent("worker", "INFO", -time.Second, errors.New("disk full"))

	if got := testutil.ToFloat64(m.eventsTotal.WithLabelValues("worker", "INFO", "error")); got != 1 {
		t.Fatalf("error events = %v", got)
	}
	if got := testutil.CollectAndCount(m.eventLag); got != 1 {
		t.Fatalf("expected one lag series, got %d", got)
	}
}
