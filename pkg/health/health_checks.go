package health

import (
	"context"
	"runtime"

	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

// ModelCheck reports the loaded model. A model without end smoothing is
// degraded: sequences that cannot reach the end state fail to decode.
func ModelCheck(m *model.Model) CheckFunc {
	return func(context.Context) Check {
		check := Check{Name: "model"}
		if m == nil {
			check.Status = StatusUnhealthy
			check.Message = "no model loaded"
			return check
		}
		check.Details = map[string]any{
			"states":   m.NumStates(),
			"alphabet": m.Alphabet().Symbols(),
			"smoothed": m.Smoothed(),
		}
		if m.Smoothed() {
			check.Status = StatusHealthy
			check.Message = "Model loaded"
		} else {
			check.Status = StatusDegraded
			check.Message = "End smoothing not applied"
		}
		return check
	}
}

// StoreCheck pings the model store.
func StoreCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{Name: "store"}
		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}
		return check
	}
}

// CanaryCheck decodes a fixed sequence; any error marks the engine
// unhealthy.
func CanaryCheck(decode func(ctx context.Context) (helices int, err error)) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{Name: "canary"}
		helices, err := decode(ctx)
		if err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		check.Status = StatusHealthy
		check.Details = map[string]any{"helices": helices}
		return check
	}
}

// MemoryCheck is degraded once the Go heap exceeds limit bytes. A zero
// limit only reports usage.
func MemoryCheck(limit uint64) CheckFunc {
	return func(context.Context) Check {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)

		check := Check{
			Name:   "memory",
			Status: StatusHealthy,
			Details: map[string]any{
				"heap_alloc_bytes": ms.HeapAlloc,
				"sys_bytes":        ms.Sys,
			},
		}
		if limit > 0 && ms.HeapAlloc > limit {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		}
		return check
	}
}
