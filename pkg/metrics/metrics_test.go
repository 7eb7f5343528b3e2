package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPlatformMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewPlatformMetrics(reg)
	metrics.IncOrderSettled("paid")
	metrics.IncReservationFailure("insufficient_stock")
	metrics.IncWithdrawal("pending")
	metrics.ObserveRequest("POST", "/api/orders", "201", 120*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orders_settled_total", "status", "paid"); err != nil {
		t.Fatalf("fetch orders settled: %v", err)
	} else if got != 1 {
		t.Fatalf("expected orders settled=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "inventory_reservation_failures_total", "reason", "insufficient_stock"); err != nil {
		t.Fatalf("fetch reservation failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected reservation failures=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "wallet_withdrawals_total", "status", "pending"); err != nil {
		t.Fatalf("fetch withdrawals: %v", err)
	} else if got != 1 {
		t.Fatalf("expected withdrawals=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "route", "/api/orders"); err != nil {
		t.Fatalf("fetch request duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestPlatformMetricsNilRegistererIsNoOp(t *testing.T) {
	metrics := NewPlatformMetrics(nil)
	metrics.IncOrderSettled("paid")
	metrics.IncWithdrawal("")
	metrics.ObserveRequest("GET", "/healthz", "200", time.Millisecond)
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

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
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
