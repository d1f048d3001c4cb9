package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/dd0wney/cluso-tmhmm/models"
	"github.com/dd0wney/cluso-tmhmm/pkg/model"
)

func TestRegisterCheck(t *testing.T) {
	hc := NewHealthChecker()

	called := false
	hc.RegisterCheck("test", func(context.Context) Check {
		called = true
		return Check{Status: StatusHealthy}
	})

	resp := hc.Check(context.Background())
	if !called {
		t.Error("registered check was not called")
	}
	check, exists := resp.Checks["test"]
	if !exists {
		t.Fatal("check result not in response")
	}
	if check.Name != "test" {
		t.Errorf("expected check name to default to registration name, got %q", check.Name)
	}
	if check.LastChecked.IsZero() {
		t.Error("LastChecked not set")
	}
}

func TestRegisterReadinessCheck(t *testing.T) {
	hc := NewHealthChecker()

	called := false
	hc.RegisterReadinessCheck("ready", func(context.Context) Check {
		called = true
		return Check{Status: StatusHealthy}
	})

	hc.Check(context.Background())
	if called {
		t.Error("readiness check should not be called for Check()")
	}
	hc.CheckReadiness(context.Background())
	if !called {
		t.Error("readiness check was not called")
	}
}

func TestCheckStatusAggregation(t *testing.T) {
	tests := []struct {
		name           string
		checkStatuses  []Status
		expectedStatus Status
	}{
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"one unhealthy", []Status{StatusHealthy, StatusUnhealthy}, StatusUnhealthy},
		{"degraded and unhealthy", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
		{"no checks", nil, StatusHealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			for i, status := range tt.checkStatuses {
				s := status
				hc.RegisterCheck(string(rune('a'+i)), func(context.Context) Check {
					return Check{Status: s}
				})
			}

			if resp := hc.Check(context.Background()); resp.Status != tt.expectedStatus {
				t.Errorf("expected status %s, got %s", tt.expectedStatus, resp.Status)
			}
		})
	}
}

func compiled(t *testing.T, smooth bool) *model.Model {
	t.Helper()
	m, err := model.Compile(models.TMHMM, model.DefaultCompileOptions())
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if smooth {
		if m, err = m.ApplyEndSmoothing(model.DefaultSmoothing()); err != nil {
			t.Fatalf("smooth: %v", err)
		}
	}
	return m
}

func TestModelCheck(t *testing.T) {
	ctx := context.Background()

	check := ModelCheck(compiled(t, true))(ctx)
	if check.Status != StatusHealthy {
		t.Errorf("smoothed model: expected healthy, got %s", check.Status)
	}
	if check.Details["states"] != 46 {
		t.Errorf("expected 46 states, got %v", check.Details["states"])
	}

	if check := ModelCheck(compiled(t, false))(ctx); check.Status != StatusDegraded {
		t.Errorf("unsmoothed model: expected degraded, got %s", check.Status)
	}
	if check := ModelCheck(nil)(ctx); check.Status != StatusUnhealthy {
		t.Errorf("nil model: expected unhealthy, got %s", check.Status)
	}
}

func TestStoreCheck(t *testing.T) {
	ctx := context.Background()
	ok := StoreCheck(func(context.Context) error { return nil })(ctx)
	if ok.Status != StatusHealthy || ok.Message != "Connected" {
		t.Errorf("unexpected check: %+v", ok)
	}
	bad := StoreCheck(func(context.Context) error { return errors.New("connection refused") })(ctx)
	if bad.Status != StatusUnhealthy || bad.Message != "connection refused" {
		t.Errorf("unexpected check: %+v", bad)
	}
}

func TestCanaryCheck(t *testing.T) {
	ctx := context.Background()
	ok := CanaryCheck(func(context.Context) (int, error) { return 2, nil })(ctx)
	if ok.Status != StatusHealthy || ok.Details["helices"] != 2 {
		t.Errorf("unexpected check: %+v", ok)
	}
	bad := CanaryCheck(func(context.Context) (int, error) { return 0, errors.New("no path") })(ctx)
	if bad.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", bad.Status)
	}
}

func TestMemoryCheck(t *testing.T) {
	ctx := context.Background()
	if check := MemoryCheck(0)(ctx); check.Status != StatusHealthy {
		t.Errorf("no limit: expected healthy, got %s", check.Status)
	}
	if check := MemoryCheck(1)(ctx); check.Status != StatusDegraded {
		t.Errorf("1 byte limit: expected degraded, got %s", check.Status)
	}
}

func TestHTTPHandler(t *testing.T) {
	tests := []struct {
		name         string
		checkStatus  Status
		expectedCode int
	}{
		{"healthy returns 200", StatusHealthy, http.StatusOK},
		{"degraded returns 200", StatusDegraded, http.StatusOK},
		{"unhealthy returns 503", StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker()
			hc.RegisterCheck("test", func(context.Context) Check {
				return Check{Status: tt.checkStatus}
			})

			rec := httptest.NewRecorder()
			hc.HTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tt.expectedCode {
				t.Errorf("expected status code %d, got %d", tt.expectedCode, rec.Code)
			}
			if rec.Header().Get("Content-Type") != "application/json" {
				t.Error("expected Content-Type application/json")
			}
			var resp Response
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.checkStatus {
				t.Errorf("expected response status %s, got %s", tt.checkStatus, resp.Status)
			}
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		checkStatus  Status
		expectedCode int
	}{
		{StatusHealthy, http.StatusOK},
		{StatusDegraded, http.StatusServiceUnavailable},
		{StatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		hc := NewHealthChecker()
		hc.RegisterReadinessCheck("test", func(context.Context) Check {
			return Check{Status: tt.checkStatus}
		})

		rec := httptest.NewRecorder()
		hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		if rec.Code != tt.expectedCode {
			t.Errorf("%s: expected status code %d, got %d", tt.checkStatus, tt.expectedCode, rec.Code)
		}
	}
}

func TestConcurrentCheckRegistration(t *testing.T) {
	hc := NewHealthChecker()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			hc.RegisterCheck(string(rune('A'+i)), func(context.Context) Check {
				return Check{Status: StatusHealthy}
			})
		}(i)
		go func() {
			defer wg.Done()
			hc.Check(context.Background())
		}()
	}
	wg.Wait()

	if got := len(hc.Check(context.Background()).Checks); got != 50 {
		t.Errorf("expected 50 checks, got %d", got)
	}
}

func TestCheckTimeout(t *testing.T) {
	hc := NewHealthChecker()
	hc.CheckTimeout = 10 * time.Millisecond

	release := make(chan struct{})
	defer close(release)
	hc.RegisterCheck("stuck", func(context.Context) Check {
		<-release
		return Check{Status: StatusHealthy}
	})
	hc.RegisterCheck("quick", func(context.Context) Check {
		return Check{Status: StatusHealthy}
	})

	resp := hc.Check(context.Background())
	if resp.Status != StatusUnhealthy {
		t.Errorf("status = %s, want unhealthy", resp.Status)
	}
	if got := resp.Checks["stuck"]; got.Status != StatusUnhealthy || got.Message == "" {
		t.Errorf("stuck check = %+v", got)
	}
	if got := resp.Checks["quick"]; got.Status != StatusHealthy {
		t.Errorf("quick check = %+v", got)
	}
}
