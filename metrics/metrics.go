// Package metrics registers the ledger's Prometheus counters and
// histograms via promauto, exposed over HTTP as a bare http.Server
// wrapping a ServeMux, independent of the query/submission Echo server
// in package httpapi.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlocksAccepted counts blocks that passed validation and were
	// applied to the store and index.
	BlocksAccepted prometheus.Counter

	// BlocksRejected counts blocks that failed validation, by the
	// rejecting error's Kind (e.g. "InvalidHeight", "ValueMismatch").
	BlocksRejected *prometheus.CounterVec

	// Rollbacks counts successful Rollback calls.
	Rollbacks prometheus.Counter

	// Resets counts successful Reset calls.
	Resets prometheus.Counter

	// StoreLatency observes how long ApplyBlock/RewindTo calls take, by
	// operation name.
	StoreLatency *prometheus.HistogramVec
)

var initOnce sync.Once

// Init registers every collector exactly once. Safe to call multiple
// times (e.g. once from the daemon, once from a test) since subsequent
// calls are no-ops.
func Init() {
	initOnce.Do(_init)
}

func _init() {
	BlocksAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "utxoledger",
		Subsystem: "engine",
		Name:      "blocks_accepted_total",
		Help:      "Number of blocks that passed validation and were applied",
	})

	BlocksRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "utxoledger",
		Subsystem: "engine",
		Name:      "blocks_rejected_total",
		Help:      "Number of blocks that failed validation, by rejection kind",
	}, []string{"kind"})

	Rollbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "utxoledger",
		Subsystem: "engine",
		Name:      "rollbacks_total",
		Help:      "Number of successful rollback operations",
	})

	Resets = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "utxoledger",
		Subsystem: "engine",
		Name:      "resets_total",
		Help:      "Number of successful reset operations",
	})

	StoreLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "utxoledger",
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Store round-trip latency, by operation",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
}
