package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lims_http_requests_total",
		Help: "Total HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lims_http_request_duration_seconds",
		Help:    "HTTP request latency by method and path",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	CascadeRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lims_cascade_records_total",
		Help: "Dependent records rewritten by catalog cascades",
	}, []string{"operation", "collection"})

	PaymentsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lims_payments_recorded_total",
		Help: "Payments appended to invoices",
	})

	ReportTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lims_report_transitions_total",
		Help: "Report status transitions by target status",
	}, []string{"status"})
)
