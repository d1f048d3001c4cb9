package metrics

import "time"

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the size of an HTTP response body
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

func (r *Registry) IncHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Inc() }
func (r *Registry) DecHTTPRequestsInFlight() { r.HTTPRequestsInFlight.Dec() }

// RecordPrediction records one decoded sequence. Length and helix
// histograms only count successful predictions.
func (r *Registry) RecordPrediction(method, status string, length, helices int, duration time.Duration) {
	r.PredictionsTotal.WithLabelValues(method, status).Inc()
	r.PredictionDuration.WithLabelValues(method).Observe(duration.Seconds())

	if status == "success" {
		r.SequenceLength.Observe(float64(length))
		r.HelicesPredicted.Observe(float64(helices))
	}
	if duration > SlowPredictionThreshold {
		r.SlowPredictions.WithLabelValues(method).Inc()
	}
}

// RecordCompilation records a model compilation
func (r *Registry) RecordCompilation(status string, states int, duration time.Duration) {
	r.ModelCompilationsTotal.WithLabelValues(status).Inc()
	r.ModelCompileDuration.Observe(duration.Seconds())
	if status == "success" {
		r.ModelStates.Set(float64(states))
	}
}

// RecordStoreOperation records a model store operation
func (r *Registry) RecordStoreOperation(operation, status string, duration time.Duration) {
	r.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
	r.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SetStoredModels sets the number of models held by the store
func (r *Registry) SetStoredModels(n int) {
	r.StoredModels.Set(float64(n))
}

// UpdateSystemMetrics refreshes the uptime gauge. Goroutine and memory
// series are sampled by the Go collector at scrape time.
func (r *Registry) UpdateSystemMetrics(started time.Time) {
	r.UptimeSeconds.Set(time.Since(started).Seconds())
}
