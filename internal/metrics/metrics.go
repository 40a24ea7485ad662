package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal  *prometheus.CounterVec
	invoiceEventsTotal *prometheus.CounterVec
	registerOnce       sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoice",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the invoice API.",
		}, []string{"method", "path", "status"})

		invoiceEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invoice",
			Name:      "events_total",
			Help:      "Invoice lifecycle events handled by the event worker.",
		}, []string{"type"})
	})
}

func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func IncInvoiceEvent(eventType string) {
	if invoiceEventsTotal == nil {
		return
	}
	invoiceEventsTotal.WithLabelValues(eventType).Inc()
}
