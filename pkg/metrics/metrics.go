package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PlatformMetrics records counters for the order and payout pipeline.
type PlatformMetrics struct {
	ordersSettled       *prometheus.CounterVec
	reservationFailures *prometheus.CounterVec
	withdrawals         *prometheus.CounterVec
	requestDuration     *prometheus.HistogramVec
}

// NewPlatformMetrics registers the platform metrics on the provided registerer.
// A nil registerer yields a no-op instance, which keeps tests quiet.
func NewPlatformMetrics(reg prometheus.Registerer) *PlatformMetrics {
	if reg == nil {
		return &PlatformMetrics{}
	}
	ordersSettled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_settled_total",
		Help: "Orders moved to a settlement status, labeled by outcome.",
	}, []string{"status"})
	reservationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_reservation_failures_total",
		Help: "Stock reservations that failed and were rolled back.",
	}, []string{"reason"})
	withdrawals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_withdrawals_total",
		Help: "Withdrawal transitions, labeled by resulting status.",
	}, []string{"status"})
	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(ordersSettled, reservationFailures, withdrawals, requestDuration)
	return &PlatformMetrics{
		ordersSettled:       ordersSettled,
		reservationFailures: reservationFailures,
		withdrawals:         withdrawals,
		requestDuration:     requestDuration,
	}
}

// IncOrderSettled increments the settlement counter for the given status.
func (m *PlatformMetrics) IncOrderSettled(status string) {
	if m == nil || m.ordersSettled == nil {
		return
	}
	m.ordersSettled.WithLabelValues(normalizeLabel(status)).Inc()
}

// IncReservationFailure increments the reservation failure counter.
func (m *PlatformMetrics) IncReservationFailure(reason string) {
	if m == nil || m.reservationFailures == nil {
		return
	}
	m.reservationFailures.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncWithdrawal increments the withdrawal counter for the given status.
func (m *PlatformMetrics) IncWithdrawal(status string) {
	if m == nil || m.withdrawals == nil {
		return
	}
	m.withdrawals.WithLabelValues(normalizeLabel(status)).Inc()
}

// ObserveRequest records a request duration sample.
func (m *PlatformMetrics) ObserveRequest(method, route, status string, duration time.Duration) {
	if m == nil || m.requestDuration == nil {
		return
	}
	m.requestDuration.WithLabelValues(normalizeLabel(method), normalizeLabel(route), normalizeLabel(status)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
