package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records activity on the payment ledger's RPC surface.
type LedgerMetrics struct {
	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

var (
	ledgerMetricsOnce sync.Once
	ledgerRegistry    *LedgerMetrics
)

// Ledger returns the lazily-initialised metrics registry used to record
// ledger RPC activity.
func Ledger() *LedgerMetrics {
	ledgerMetricsOnce.Do(func() {
		ledgerRegistry = &LedgerMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "paynova",
				Subsystem: "ledger",
				Name:      "requests_total",
				Help:      "Total ledger RPC requests segmented by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "paynova",
				Subsystem: "ledger",
				Name:      "errors_total",
				Help:      "Total ledger RPC errors segmented by method and error kind.",
			}, []string{"method", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "paynova",
				Subsystem: "ledger",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for ledger RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
		}
		prometheus.MustRegister(ledgerRegistry.requests, ledgerRegistry.errors, ledgerRegistry.latency)
	})
	return ledgerRegistry
}

// Observe records a completed request. Outcome is "ok" or "error"; kind
// carries the error taxonomy label when the request failed.
func (m *LedgerMetrics) Observe(method string, start time.Time, kind string) {
	if m == nil {
		return
	}
	method = strings.TrimSpace(method)
	outcome := "ok"
	if kind != "" {
		outcome = "error"
		m.errors.WithLabelValues(method, kind).Inc()
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
