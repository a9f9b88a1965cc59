// Package metrics exposes Prometheus instrumentation for workflow actions,
// model calls and checkpoint writes.
package metrics

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Workflow metrics
	actionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "syllabus_action_duration_seconds",
			Help:    "Workflow action duration in seconds by action",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14), // 10ms to ~80s
		},
		[]string{"action", "status"},
	)

	actionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syllabus_actions_total",
			Help: "Total number of workflow actions handled",
		},
		[]string{"action", "status"},
	)

	// Model metrics
	modelCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "syllabus_model_call_duration_seconds",
			Help:    "Model call duration in seconds by model and operation",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s to ~100s
		},
		[]string{"model", "operation", "status"},
	)

	rateLimiterWaitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "syllabus_rate_limiter_wait_duration_seconds",
			Help:    "Rate limiter wait duration in seconds by model",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~32s
		},
		[]string{"model"},
	)

	embeddedTexts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "syllabus_embedded_texts_total",
			Help: "Total number of texts sent for embedding",
		},
	)

	// Storage metrics
	checkpointWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "syllabus_checkpoint_writes_total",
			Help: "Total number of checkpoint writes",
		},
		[]string{"status"},
	)

	retrievedChunks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "syllabus_retrieved_chunks",
			Help:    "Number of chunks returned per context retrieval",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
	)

	activeThreads = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "syllabus_active_threads",
			Help: "Number of threads with an invocation in progress",
		},
	)
)

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// Collector provides convenience methods for recording metrics.
// The zero value is not usable; a nil *Collector records nothing.
type Collector struct {
	logger *slog.Logger
}

// NewCollector creates a new metrics collector
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		logger: logger.With("component", "metrics"),
	}
}

// RecordAction records the duration and outcome of one workflow action.
func (c *Collector) RecordAction(action string, duration time.Duration, success bool) {
	if c == nil {
		return
	}
	actionDuration.WithLabelValues(action, status(success)).Observe(duration.Seconds())
	actionsTotal.WithLabelValues(action, status(success)).Inc()
}

// RecordModelCall records a model request duration
func (c *Collector) RecordModelCall(model, operation string, duration time.Duration, success bool) {
	if c == nil {
		return
	}
	modelCallDuration.WithLabelValues(model, operation, status(success)).Observe(duration.Seconds())
}

// RecordRateLimiterWait records rate limiter wait time
func (c *Collector) RecordRateLimiterWait(model string, duration time.Duration) {
	if c == nil {
		return
	}
	rateLimiterWaitDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// AddEmbeddedTexts counts texts submitted to the embedding backend.
func (c *Collector) AddEmbeddedTexts(n int) {
	if c == nil || n <= 0 {
		return
	}
	embeddedTexts.Add(float64(n))
}

// RecordCheckpointWrite counts a checkpoint write attempt.
func (c *Collector) RecordCheckpointWrite(success bool) {
	if c == nil {
		return
	}
	checkpointWrites.WithLabelValues(status(success)).Inc()
}

// RecordRetrieval records how many chunks a context lookup returned.
func (c *Collector) RecordRetrieval(hits int) {
	if c == nil {
		return
	}
	retrievedChunks.Observe(float64(hits))
}

// ThreadStarted and ThreadFinished track in-flight invocations.
func (c *Collector) ThreadStarted() {
	if c == nil {
		return
	}
	activeThreads.Inc()
}

func (c *Collector) ThreadFinished() {
	if c == nil {
		return
	}
	activeThreads.Dec()
}

// Serve exposes the default registry on addr until the server fails.
// It is meant to run in its own goroutine.
func (c *Collector) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if c != nil {
		c.logger.Info("serving metrics", "addr", addr)
	}
	return http.ListenAndServe(addr, mux)
}
