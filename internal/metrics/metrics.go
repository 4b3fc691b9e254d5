// Package metrics holds the Prometheus collectors for archgraph.
//
// Collectors register on the default registry through promauto and are
// exposed by the router at /metrics.
//
// Import Path: archgraph.io/archgraph/internal/metrics
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "archgraph.io/archgraph/internal/pkg/errors"
)

// Result label values.
const (
	ResultSuccess    = "success"
	ResultNotFound   = "not_found"
	ResultBadRequest = "bad_request"
	ResultError      = "error"
)

var (
	// mutationTotal counts service operations by outcome
	mutationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archgraph_mutation_total",
		Help: "Total aggregate operations by operation and result",
	}, []string{"operation", "result"})

	// mutationDuration tracks load-to-save latency per operation
	mutationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "archgraph_mutation_duration_seconds",
		Help:    "Aggregate operation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
	}, []string{"operation"})

	storeOperationTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archgraph_store_operation_total",
		Help: "Total persistence operations by backend, operation and result",
	}, []string{"backend", "operation", "result"})
)

// Result classifies err into a result label.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case apperrors.IsNotFound(err):
		return ResultNotFound
	case apperrors.IsBadRequest(err):
		return ResultBadRequest
	default:
		return ResultError
	}
}

// ObserveMutation records one service operation that started at start.
func ObserveMutation(operation string, start time.Time, err error) {
	mutationTotal.WithLabelValues(operation, Result(err)).Inc()
	mutationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveStore records one Load or Save against a persistence backend.
func ObserveStore(backend, operation string, err error) {
	storeOperationTotal.WithLabelValues(backend, operation, Result(err)).Inc()
}
