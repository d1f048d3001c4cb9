package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Prediction Metrics
	PredictionsTotal   *prometheus.CounterVec
	PredictionDuration *prometheus.HistogramVec
	SequenceLength     prometheus.Histogram
	HelicesPredicted   prometheus.Histogram
	SlowPredictions    *prometheus.CounterVec

	// Model Metrics
	ModelCompilationsTotal *prometheus.CounterVec
	ModelCompileDuration   prometheus.Histogram
	ModelStates            prometheus.Gauge

	// Store Metrics
	StoreOperationsTotal   *prometheus.CounterVec
	StoreOperationDuration *prometheus.HistogramVec
	StoredModels           prometheus.Gauge

	// System Metrics; runtime series come from the Go collector
	UptimeSeconds prometheus.Gauge

	registry *prometheus.Registry
}

const namespace = "tmhmm"

// SlowPredictionThreshold marks a single-sequence decode as slow.
const SlowPredictionThreshold = time.Second

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	// Initialize all metrics
	r.initHTTPMetrics()
	r.initPredictionMetrics()
	r.initModelMetrics()
	r.initStoreMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
