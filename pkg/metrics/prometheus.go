// Package metrics provides Prometheus metrics for the breakpoint pipeline
// and its serving layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every Prometheus metric for the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline metrics.
	matchesProcessed   prometheus.Counter
	matchesSkipped     prometheus.Counter
	playersTracked     prometheus.Gauge
	featureVectors     prometheus.Counter
	foldsTrained       prometheus.Counter
	foldsSkipped       prometheus.Counter
	oofPredictions     prometheus.Counter
	dateWallViolations prometheus.Counter

	// Serving metrics.
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	predictLatency      prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "breakpoint",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.matchesProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "matches_processed_total",
		Help:      "Matches consumed by the rating engine.",
	})
	m.matchesSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "matches_skipped_total",
		Help:      "Matches skipped for malformed identifiers in batch mode.",
	})
	m.playersTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "players_tracked",
		Help:      "Players with live rating state.",
	})
	m.featureVectors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "feature_vectors_total",
		Help:      "Feature vectors assembled.",
	})
	m.foldsTrained = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "cv_folds_trained_total",
		Help:      "Cross-validation folds trained.",
	})
	m.foldsSkipped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "cv_folds_skipped_total",
		Help:      "Cross-validation folds skipped for sparsity.",
	})
	m.oofPredictions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "oof_predictions_total",
		Help:      "Out-of-fold predictions pooled for calibration.",
	})
	m.dateWallViolations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "date_wall_violations_total",
		Help:      "Rejected attempts to use information at or after a match date.",
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status"})
	m.predictLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "predict_latency_ms",
		Help:      "End-to-end /predict latency in milliseconds.",
		Buckets:   m.histogramBuckets,
	})
}

// RecordMatchProcessed increments the processed-matches counter.
func RecordMatchProcessed() {
	globalManager.matchesProcessed.Inc()
}

// RecordMatchSkipped increments the skipped-matches counter.
func RecordMatchSkipped() {
	globalManager.matchesSkipped.Inc()
}

// UpdatePlayersTracked sets the live player-state gauge.
func UpdatePlayersTracked(count int) {
	globalManager.playersTracked.Set(float64(count))
}

// RecordFeatureVector increments the assembled-vectors counter.
func RecordFeatureVector() {
	globalManager.featureVectors.Inc()
}

// RecordFoldTrained increments the trained-folds counter.
func RecordFoldTrained() {
	globalManager.foldsTrained.Inc()
}

// RecordFoldSkipped increments the skipped-folds counter.
func RecordFoldSkipped() {
	globalManager.foldsSkipped.Inc()
}

// RecordOOFPredictions adds to the pooled out-of-fold prediction counter.
func RecordOOFPredictions(n int) {
	globalManager.oofPredictions.Add(float64(n))
}

// RecordDateWallViolation increments the rejected-leak counter.
func RecordDateWallViolation() {
	globalManager.dateWallViolations.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

// RecordPredictLatency records /predict latency in milliseconds.
func RecordPredictLatency(latencyMs float64) {
	globalManager.predictLatency.Observe(latencyMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
