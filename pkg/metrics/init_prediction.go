package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initPredictionMetrics() {
	f := promauto.With(r.registry)

	r.PredictionsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predictions_total",
		Help:      "Sequences decoded, by method and outcome.",
	}, []string{"method", "status"})

	// Decoding is O(L * transitions), so latency tracks sequence length.
	r.PredictionDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "prediction_duration_seconds",
		Help:      "Per-sequence decoding time.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2.5, 8),
	}, []string{"method"})

	r.SequenceLength = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sequence_length_residues",
		Help:      "Residues per decoded sequence.",
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000},
	})

	r.HelicesPredicted = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "helices_predicted",
		Help:      "Transmembrane helices predicted per sequence.",
		Buckets:   []float64{0, 1, 2, 4, 7, 12, 20},
	})

	r.SlowPredictions = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "slow_predictions_total",
		Help:      "Sequences that took longer than SlowPredictionThreshold to decode.",
	}, []string{"method"})
}
