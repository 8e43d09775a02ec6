// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GRPCServerHandlingSeconds is a histogram for gRPC server request latencies
	GRPCServerHandlingSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grpc_server_handling_seconds",
			Help:    "Histogram of response latency (seconds) of gRPC that had been application-level handled by the server.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "code"},
	)

	// EvaluationBatchSize is a histogram of grouped inference batch sizes
	EvaluationBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "evaluation_batch_size",
			Help:    "Histogram of batch sizes for grouped inference calls.",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
		},
	)

	// BatchWindowWaitSeconds tracks how long the collection window stayed open
	BatchWindowWaitSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "batch_window_wait_seconds",
			Help:    "Histogram of time spent accumulating a batch before dispatch.",
			Buckets: []float64{.0001, .0005, .001, .002, .005, .01, .025, .05},
		},
	)

	// InferenceLatencySeconds is a histogram for inference-only latency
	InferenceLatencySeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inference_latency_seconds",
			Help:    "Histogram of inference latency (seconds) excluding batching and gRPC overhead.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// BatchFailures counts batches whose inference call failed
	BatchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_failures_total",
			Help: "Total number of batches that failed during inference.",
		},
	)

	// CacheHits counts evaluation requests served from the result cache
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "evaluation_cache_hits_total",
			Help: "Total number of evaluation requests served from the cache.",
		},
	)

	// TrajectoriesByState tracks the dispatcher's trajectory registry
	TrajectoriesByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trajectories",
			Help: "Number of trajectories by state.",
		},
		[]string{"state"},
	)

	// TrajectoryRetries counts re-enqueued trajectory attempts
	TrajectoryRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trajectory_retries_total",
			Help: "Total number of trajectory retry attempts.",
		},
	)

	// HealthStatus is a gauge indicating the health status of the process
	HealthStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "health_status",
			Help: "Health status of the service (1 = healthy, 0 = unhealthy).",
		},
	)
)

// RecordGRPCLatency records the latency of a gRPC method call
func RecordGRPCLatency(method, code string, seconds float64) {
	GRPCServerHandlingSeconds.WithLabelValues(method, code).Observe(seconds)
}

// RecordBatchSize records the size of a dispatched batch
func RecordBatchSize(size int) {
	EvaluationBatchSize.Observe(float64(size))
}

// RecordBatchWindowWait records how long a collection window stayed open
func RecordBatchWindowWait(seconds float64) {
	BatchWindowWaitSeconds.Observe(seconds)
}

// RecordInferenceLatency records the latency of a grouped inference call
func RecordInferenceLatency(seconds float64) {
	InferenceLatencySeconds.Observe(seconds)
}

// RecordBatchFailure counts a failed batch
func RecordBatchFailure() {
	BatchFailures.Inc()
}

// RecordCacheHit counts a cache-served evaluation
func RecordCacheHit() {
	CacheHits.Inc()
}

// SetTrajectoryState sets the gauge for one trajectory state
func SetTrajectoryState(state string, n int) {
	TrajectoriesByState.WithLabelValues(state).Set(float64(n))
}

// RecordTrajectoryRetry counts a retry re-enqueue
func RecordTrajectoryRetry() {
	TrajectoryRetries.Inc()
}

// SetHealthy sets the health status to healthy
func SetHealthy() {
	HealthStatus.Set(1)
}

// SetUnhealthy sets the health status to unhealthy
func SetUnhealthy() {
	HealthStatus.Set(0)
}
