package httpapi

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the HTTP surface: one counter vector per handler,
// keyed by the response's HTTP status code.
var (
	prometheusHTTPSubmitBlock *prometheus.CounterVec
	prometheusHTTPBalance     *prometheus.CounterVec
	prometheusHTTPRollback    *prometheus.CounterVec
	prometheusHTTPReset       *prometheus.CounterVec
	prometheusHTTPListBlocks  *prometheus.CounterVec
)

var prometheusMetricsInitOnce sync.Once

func initPrometheusMetrics() {
	prometheusMetricsInitOnce.Do(_initPrometheusMetrics)
}

func _initPrometheusMetrics() {
	labels := []string{"status"}

	prometheusHTTPSubmitBlock = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utxoledger",
			Subsystem: "http",
			Name:      "submit_block",
			Help:      "Number of POST /blocks requests, by outcome status",
		},
		labels,
	)

	prometheusHTTPBalance = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utxoledger",
			Subsystem: "http",
			Name:      "balance",
			Help:      "Number of GET /balance/:address requests, by outcome status",
		},
		labels,
	)

	prometheusHTTPRollback = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utxoledger",
			Subsystem: "http",
			Name:      "rollback",
			Help:      "Number of POST /rollback requests, by outcome status",
		},
		labels,
	)

	prometheusHTTPReset = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utxoledger",
			Subsystem: "http",
			Name:      "reset",
			Help:      "Number of POST /reset requests, by outcome status",
		},
		labels,
	)

	prometheusHTTPListBlocks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "utxoledger",
			Subsystem: "http",
			Name:      "list_blocks",
			Help:      "Number of GET /blocks requests, by outcome status",
		},
		labels,
	)
}
