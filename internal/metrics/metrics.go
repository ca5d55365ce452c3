// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "medeasy",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and status.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	RequestsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medeasy",
		Name:      "requests_created_total",
		Help:      "Reorder requests and orders created.",
	}, []string{"kind"})

	Transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "medeasy",
		Name:      "request_transitions_total",
		Help:      "Lifecycle transitions applied, by kind and target status.",
	}, []string{"kind", "status"})

	UnitsReconciled = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medeasy",
		Name:      "units_reconciled_total",
		Help:      "Stock units credited by approvals.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "medeasy",
		Name:      "events_dropped_total",
		Help:      "Live events that could not be delivered.",
	})
)
