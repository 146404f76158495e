// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	DocumentsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civicportal_document_requests_submitted_total",
			Help: "Document requests accepted after validation.",
		},
		[]string{"type"},
	)

	DocumentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civicportal_document_transitions_total",
			Help: "Committed document request status transitions.",
		},
		[]string{"type", "status"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civicportal_pdf_generation_duration_seconds",
			Help:    "Time spent rendering and storing document PDFs.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type", "outcome"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civicportal_http_requests_total",
			Help: "HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civicportal_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
