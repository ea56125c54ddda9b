// Package metrics provides Prometheus metrics for the simulated file system.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Operation results used as the "result" label
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simfs_operations_total",
			Help: "Total number of file system operations",
		},
		[]string{"op", "result"},
	)

	persistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "simfs_persist_failures_total",
			Help: "Total number of failed saves to the persistence gateway",
		},
	)

	treeNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfs_tree_nodes",
			Help: "Number of files and folders in the tree",
		},
	)

	treeCorruptedNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfs_tree_corrupted_nodes",
			Help: "Number of corrupted files in the tree",
		},
	)

	treeBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfs_tree_bytes",
			Help: "Total size of the tree in bytes",
		},
	)

	snapshotsRetained = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "simfs_snapshots_retained",
			Help: "Number of snapshots held in history",
		},
	)
)

// RecordOperation counts one operation and whether it failed
func RecordOperation(op string, err error) {
	result := ResultOK
	if err != nil {
		result = ResultFailed
	}
	operationsTotal.WithLabelValues(op, result).Inc()
}

// RecordPersistFailure counts a failed gateway save
func RecordPersistFailure() {
	persistFailuresTotal.Inc()
}

// SetTreeStats publishes the current shape of the tree
func SetTreeStats(nodes, corrupted int, bytes int64) {
	treeNodes.Set(float64(nodes))
	treeCorruptedNodes.Set(float64(corrupted))
	treeBytes.Set(float64(bytes))
}

// SetSnapshots publishes the snapshot history length
func SetSnapshots(n int) {
	snapshotsRetained.Set(float64(n))
}

// Handler returns the HTTP handler exposing all registered metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
