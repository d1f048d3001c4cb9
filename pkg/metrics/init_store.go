package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	f := promauto.With(r.registry)

	r.StoreOperationsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operations_total",
		Help:      "Model store calls, by operation and outcome (success, not_found, error).",
	}, []string{"operation", "status"})

	r.StoreOperationDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "store",
		Name:      "operation_duration_seconds",
		Help:      "Model store call latency.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"operation"})

	r.StoredModels = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "stored_models",
		Help:      "Compiled models held by the store.",
	})
}
