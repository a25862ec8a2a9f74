package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsAggregateHooks(t *testing.T) {
	m := NewMetrics()
	m.IncAggregateConflict("Radar.Edition.Publish")
	m.IncAggregateConflict("Radar.Edition.Publish")
	m.IncAggregateRetry("Radar.Edition.Publish")
	m.ObserveAggregateOperation("Radar.Edition.Publish", "success", 5*time.Millisecond)

	body := scrape(t, m)
	for _, want := range []string{
		`radar_aggregate_conflicts_total{operation="Radar.Edition.Publish"} 2`,
		`radar_aggregate_retryable_total{operation="Radar.Edition.Publish"} 1`,
		`radar_aggregate_operation_duration_seconds_count{operation="Radar.Edition.Publish",status="success"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	return rec.Body.String()
}

func TestMetricsHandlerExposesRegistry(t *testing.T) {
	m := NewMetrics()
	m.ObserveAPI("GET", "/api/radars/live", "200", 10*time.Millisecond)
	m.ObserveAdvance("success", 12, time.Second)

	body := scrape(t, m)
	for _, want := range []string{"radar_api_requests_total", "radar_live_blips 12"} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/", "200", time.Millisecond)
	m.IncCacheLookup("hit")
	m.IncFactAppend("score")
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("nil handler status: want=503 got=%d", rec.Code)
	}
}
