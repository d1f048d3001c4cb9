// Package health aggregates component checks into a single status.
package health

import (
	"context"
	"maps"
	"sync"
	"time"
)

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		CheckTimeout: DefaultCheckTimeout,
		started:      time.Now(),
		checks:       make(map[string]CheckFunc),
		readyChecks:  make(map[string]CheckFunc),
	}
}

// RegisterCheck adds a check run by Check. A later registration under
// the same name replaces the earlier one.
func (hc *HealthChecker) RegisterCheck(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.checks[name] = check
}

// RegisterReadinessCheck adds a check run by CheckReadiness.
func (hc *HealthChecker) RegisterReadinessCheck(name string, check CheckFunc) {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	hc.readyChecks[name] = check
}

// Check runs the liveness checks.
func (hc *HealthChecker) Check(ctx context.Context) Response {
	return hc.run(ctx, hc.snapshot(hc.checks))
}

// CheckReadiness runs the readiness checks.
func (hc *HealthChecker) CheckReadiness(ctx context.Context) Response {
	return hc.run(ctx, hc.snapshot(hc.readyChecks))
}

func (hc *HealthChecker) snapshot(checks map[string]CheckFunc) map[string]CheckFunc {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return maps.Clone(checks)
}

func (hc *HealthChecker) run(ctx context.Context, checks map[string]CheckFunc) Response {
	results := make(chan Check, len(checks))
	var wg sync.WaitGroup
	for name, fn := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- hc.runOne(ctx, name, fn)
		}()
	}
	wg.Wait()
	close(results)

	response := Response{
		Status:    StatusHealthy,
		Timestamp: time.Now(),
		Checks:    make(map[string]Check, len(checks)),
		Uptime:    time.Since(hc.started).Seconds(),
	}
	for check := range results {
		response.Checks[check.Name] = check
		response.Status = worse(response.Status, check.Status)
	}
	return response
}

// runOne runs fn under the check timeout. A check still running at the
// deadline is reported unhealthy; its goroutine finishes on its own.
func (hc *HealthChecker) runOne(ctx context.Context, name string, fn CheckFunc) Check {
	timeout := hc.CheckTimeout
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan Check, 1)
	go func() { done <- fn(ctx) }()

	var check Check
	select {
	case check = <-done:
	case <-ctx.Done():
		check = Check{Status: StatusUnhealthy, Message: "check did not finish: " + ctx.Err().Error()}
	}
	check.Name = name
	check.LastChecked = start
	check.Duration = time.Since(start)
	return check
}

var severity = map[Status]int{StatusHealthy: 0, StatusDegraded: 1, StatusUnhealthy: 2}

func worse(a, b Status) Status {
	if severity[b] > severity[a] {
		return b
	}
	return a
}
