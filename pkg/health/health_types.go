package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the health status of a component
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// Check is the result of one component check.
type Check struct {
	Name        string         `json:"name"`
	Status      Status         `json:"status"`
	Message     string         `json:"message,omitempty"`
	Details     map[string]any `json:"details,omitempty"`
	LastChecked time.Time      `json:"last_checked"`
	Duration    time.Duration  `json:"duration_ns"`
}

// CheckFunc performs a health check. Implementations should honour ctx
// when they talk to external systems.
type CheckFunc func(ctx context.Context) Check

// DefaultCheckTimeout bounds a single check. The canary decode and a
// store ping both finish well inside it.
const DefaultCheckTimeout = 2 * time.Second

// HealthChecker runs registered checks for the /health and /ready
// endpoints. Checks of one kind run concurrently.
type HealthChecker struct {
	// CheckTimeout bounds each check; a check that overruns is unhealthy.
	CheckTimeout time.Duration

	mu          sync.RWMutex
	started     time.Time
	checks      map[string]CheckFunc
	readyChecks map[string]CheckFunc
}

// Response represents the overall health response
type Response struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Uptime    float64          `json:"uptime_seconds"`
}
