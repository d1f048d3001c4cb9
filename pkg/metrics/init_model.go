package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initModelMetrics() {
	f := promauto.With(r.registry)

	r.ModelCompilationsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "model",
		Name:      "compilations_total",
		Help:      "Model compilations, by outcome.",
	}, []string{"status"})

	r.ModelCompileDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "model",
		Name:      "compile_duration_seconds",
		Help:      "Time to parse, tie and validate a model description.",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 5, 7),
	})

	r.ModelStates = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "model",
		Name:      "states",
		Help:      "States in the most recently compiled model.",
	})
}
