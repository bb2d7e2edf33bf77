package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCartMetricsExportsOperationCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)
	m.ObserveOperation("add", "guest", 5*time.Millisecond, nil)
	m.ObserveOperation("add", "guest", 5*time.Millisecond, errors.New("boom"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "storefront_cart_operations_total", map[string]string{"operation": "add", "outcome": OutcomeOK}); err != nil {
		t.Fatalf("fetch ok: %v", err)
	} else if got != 1 {
		t.Fatalf("expected ok=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "storefront_cart_operations_total", map[string]string{"operation": "add", "outcome": OutcomeError}); err != nil {
		t.Fatalf("fetch error: %v", err)
	} else if got != 1 {
		t.Fatalf("expected error=1, got %f", got)
	}
}

func TestCartMetricsBackendStatusLabels(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)
	m.ObserveBackend("cart.get", 200, time.Millisecond)
	m.ObserveBackend("cart.get", 0, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_backend_requests_total", map[string]string{"endpoint": "cart.get", "status": "200"}); err != nil || got != 1 {
		t.Fatalf("expected status 200 count 1, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_backend_requests_total", map[string]string{"status": "transport_error"}); err != nil || got != 1 {
		t.Fatalf("expected transport error count 1, got %f err=%v", got, err)
	}
}

func TestCartMetricsJobOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)
	m.ObserveJob("session-eviction", time.Millisecond, nil)
	m.ObserveJob("session-eviction", time.Millisecond, errors.New("boom"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_housekeeping_job_runs_total", map[string]string{"job": "session-eviction", "outcome": OutcomeError}); err != nil || got != 1 {
		t.Fatalf("expected error count 1, got %f err=%v", got, err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *CartMetrics
	m.ObserveOperation("add", "guest", time.Millisecond, nil)
	m.ObserveBackend("cart.get", 200, time.Millisecond)
	m.IncVoucher("applied")

	NewCartMetrics(nil).IncVoucher("applied")
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCartMetrics(reg).IncVoucher("rejected")

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `storefront_voucher_evaluations_total{state="rejected"} 1`) {
		t.Fatalf("voucher counter missing from output:\n%s", rec.Body.String())
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("counter %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
