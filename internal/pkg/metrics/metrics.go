// Package metrics holds the prometheus collectors of the cache manager.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var (
	Operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "omi_cache_operations_total",
			Help: "Total cache verbs executed, by backend, verb and result",
		},
		[]string{"backend", "verb", "result"},
	)

	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "omi_cache_operation_duration_seconds",
			Help:    "Histogram of cache verb duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "verb"},
	)

	setupOnce sync.Once
)

// Setup registers the collectors with the default registry. Safe to call more than once.
func Setup() {
	setupOnce.Do(func() {
		prometheus.MustRegister(Operations)
		prometheus.MustRegister(OperationDuration)
	})
}
