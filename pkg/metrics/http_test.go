package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/magazines", 200, 20*time.Millisecond)
	m.Observe("POST", "/katkida-bulunun", 429, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "galata_http_requests_total", "status", "429"); err != nil || got != 1 {
		t.Fatalf("expected one throttled request, got %f err=%v", got, err)
	}
	if sum, err := fetchHistogramSum(mfs, "galata_http_request_duration_seconds", "route", "/magazines"); err != nil || sum <= 0 {
		t.Fatalf("expected latency sample, got %f err=%v", sum, err)
	}
}

func TestNilHTTPMetricsIsNoop(t *testing.T) {
	var m *HTTPMetrics
	m.Observe("GET", "/", 200, time.Second)
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Second)
}
