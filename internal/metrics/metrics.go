// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var (
	// WishlistOperations counts lifecycle operations by operation and outcome.
	WishlistOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wishlist",
		Name:      "operations_total",
		Help:      "Wishlist lifecycle operations by operation and outcome.",
	}, []string{"operation", "outcome"})

	// OrphanedBlobs counts blobs left unreferenced after a failed cleanup.
	OrphanedBlobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wishlist",
		Name:      "orphaned_blobs_total",
		Help:      "Blobs left without a referencing record after a failed cleanup.",
	}, []string{"operation"})

	// SweepReclaimed counts blobs deleted by the reconciliation sweep.
	SweepReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wishlist",
		Name:      "sweep_reclaimed_blobs_total",
		Help:      "Unreferenced blobs deleted by the reconciliation sweep.",
	})

	// SweepFailures counts sweeps or per-blob deletes that failed.
	SweepFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "wishlist",
		Name:      "sweep_failures_total",
		Help:      "Reconciliation sweep failures.",
	})
)

// ObserveOperation records the outcome of a lifecycle operation.
func ObserveOperation(operation string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	WishlistOperations.WithLabelValues(operation, outcome).Inc()
}
