package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks proposed mutations by request kind and disposition
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnsaas_requests_total",
		Help: "Total number of change requests by kind and disposition",
	}, []string{"kind", "disposition"})

	// TransitionsTotal tracks terminal transitions of change requests
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnsaas_request_transitions_total",
		Help: "Total number of OPEN to ACCEPTED/REJECTED transitions",
	}, []string{"kind", "state"})

	// TemplateRecords tracks records materialized or removed by template expansion
	TemplateRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnsaas_template_records_total",
		Help: "Total number of records rendered or removed by template expansion",
	}, []string{"operation"})

	// PTRRecords tracks auto-PTR synthesis results
	PTRRecords = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dnsaas_ptr_records_total",
		Help: "Total number of auto-PTR outcomes",
	}, []string{"result"})

	// NotifyErrors counts change events that could not be published
	NotifyErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dnsaas_notify_errors_total",
		Help: "Total number of change events that failed to publish",
	})

	// APIRequestDuration tracks handler latency
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dnsaas_api_request_duration_seconds",
		Help:    "Histogram of API request duration",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})

	// DBConnectionsActive tracks open database connections
	DBConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dnsaas_db_connections_active",
		Help: "Number of active database connections",
	})
)
