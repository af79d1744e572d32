package metrics

import "github.com/prometheus/client_golang/prometheus"

// Ingestion Prometheus metrics.
var (
	IngestRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calcdock",
			Name:      "ingest_runs_total",
			Help:      "Total number of ingestion runs",
		},
		[]string{"outcome"}, // "completed" / "aborted"
	)

	IngestRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "calcdock",
			Name:      "ingest_run_duration_seconds",
			Help:      "Ingestion run duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"outcome"},
	)

	BlobBytesOffloaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calcdock",
			Name:      "blob_bytes_offloaded_total",
			Help:      "Total serialized bytes moved into the blob store",
		},
		[]string{"namespace"},
	)
)

var ingestMetricsRegistered bool

// RegisterIngestMetrics registers Prometheus ingestion metrics. Must be called once from main.
func RegisterIngestMetrics() {
	if ingestMetricsRegistered {
		return
	}
	prometheus.MustRegister(IngestRunsTotal)
	prometheus.MustRegister(IngestRunDuration)
	prometheus.MustRegister(BlobBytesOffloaded)
	ingestMetricsRegistered = true
}
