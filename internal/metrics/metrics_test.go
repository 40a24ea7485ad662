package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	Register()
	Register()

	IncRequest("GET", "/api/invoices", 200)
	IncRequest("GET", "/api/invoices", 200)
	IncInvoiceEvent("invoice.created")

	assert.Equal(t, 2.0, testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/invoices", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(invoiceEventsTotal.WithLabelValues("invoice.created")))
}
