package metrics

import "github.com/prometheus/client_golang/prometheus"

// Retrieval Prometheus metrics. The scan is the system's only
// O(total chunks) hot path, so it gets its own duration histogram.
var (
	RetrievalRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bulletindex",
			Name:      "retrieval_requests_total",
			Help:      "Total number of retrieval requests",
		},
		[]string{"segment", "status"},
	)

	RetrievalScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bulletindex",
			Name:      "retrieval_scan_duration_seconds",
			Help:      "Linear scan duration in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	RetrievalChunksScanned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bulletindex",
			Name:      "retrieval_chunks_scanned",
			Help:      "Number of chunks scored per retrieval",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers Prometheus retrieval metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(RetrievalRequestsTotal)
	prometheus.MustRegister(RetrievalScanDuration)
	prometheus.MustRegister(RetrievalChunksScanned)
	retrievalMetricsRegistered = true
}
