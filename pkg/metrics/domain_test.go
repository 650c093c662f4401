package metrics

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestDomainMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewDomainMetrics(reg)
	metrics.IncOrderCreated("morning")
	metrics.IncOrderCreated("morning")
	metrics.IncOrderMerged()
	metrics.IncLedgerEntry("debit")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orders_created_total", "window", "morning"); err != nil {
		t.Fatalf("fetch orders created: %v", err)
	} else if got != 2 {
		t.Fatalf("expected orders_created=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "ledger_entries_total", "entry_type", "debit"); err != nil {
		t.Fatalf("fetch ledger entries: %v", err)
	} else if got != 1 {
		t.Fatalf("expected ledger_entries=1, got %f", got)
	}
}

func TestDomainMetricsNilRegistererIsNoOp(t *testing.T) {
	metrics := NewDomainMetrics(nil)
	metrics.IncOrderCreated("evening")
	metrics.IncOrderMerged()
	metrics.IncLedgerEntry("credit")
}

func TestHTTPMiddlewareRecordsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)

	router := chi.NewRouter()
	router.Use(metrics.Middleware)
	router.Get("/api/v1/orders/{orderId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "http_requests_total")
	if mf == nil {
		t.Fatalf("http_requests_total not found")
	}
	if !matchesLabel(mf.GetMetric()[0].GetLabel(), "route", "/api/v1/orders/{orderId}") {
		t.Fatalf("expected route label with chi pattern, got %v", mf.GetMetric()[0].GetLabel())
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
