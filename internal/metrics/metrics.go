// Package metrics exposes Prometheus instrumentation for lifecycle
// operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Name:      "files_deleted_total",
		Help:      "Number of files hard-deleted by lifecycle jobs.",
	})

	FilesAnonymized = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Name:      "files_anonymized_total",
		Help:      "Number of file records anonymized by lifecycle jobs.",
	})

	FilesTransferred = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Name:      "files_transferred_total",
		Help:      "Number of file records transferred to a new owner.",
	})

	BytesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Name:      "bytes_deleted_total",
		Help:      "Total bytes of blob content deleted.",
	})

	FileOperationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Name:      "file_operation_failures_total",
		Help:      "Per-file operation failures that were recorded as job warnings.",
	}, []string{"operation"})

	JobDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "lifecycle",
		Name:      "job_duration_seconds",
		Help:      "Wall-clock duration of cleanup jobs.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"type", "status"})

	AlertsRaised = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Name:      "alerts_raised_total",
		Help:      "Storage alerts raised by the health monitor.",
	}, []string{"type", "severity"})

	AggregateCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lifecycle",
		Name:      "aggregate_cache_requests_total",
		Help:      "Analytics aggregate cache requests by outcome.",
	}, []string{"outcome"})
)
