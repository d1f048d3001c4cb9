package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func runServer(t *testing.T, ctx context.Context, gs *GracefulServer) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- gs.Run(ctx) }()
	select {
	case <-gs.Started():
	case err := <-done:
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	return done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestGracefulServer_ServesUntilContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gs := NewGracefulServer("127.0.0.1:0", okHandler(), nil)
	done := runServer(t, ctx, gs)

	resp, err := http.Get(fmt.Sprintf("http://%s/", gs.Addr()))
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}

	cancel()
	waitDone(t, done)
	if !gs.IsShuttingDown() {
		t.Error("expected IsShuttingDown after context cancel")
	}
}

func TestGracefulServer_Shutdown(t *testing.T) {
	gs := NewGracefulServer("127.0.0.1:0", okHandler(), nil)
	done := runServer(t, context.Background(), gs)

	if err := gs.Shutdown(time.Second); err != nil {
		t.Errorf("Shutdown error: %v", err)
	}
	waitDone(t, done)

	// second call is a no-op
	if err := gs.Shutdown(time.Second); err != nil {
		t.Errorf("second Shutdown error: %v", err)
	}
}

func TestGracefulServer_SIGHUPReloads(t *testing.T) {
	var reloads atomic.Int32
	gs := NewGracefulServer("127.0.0.1:0", okHandler(), nil)
	gs.SetReloadFunc(func() error {
		reloads.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := runServer(t, ctx, gs)

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGHUP); err != nil {
		t.Fatalf("Failed to send SIGHUP: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for reloads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if reloads.Load() != 1 {
		t.Errorf("reloads = %d, want 1", reloads.Load())
	}
	if gs.IsShuttingDown() {
		t.Error("Server should not be shutting down after SIGHUP")
	}

	cancel()
	waitDone(t, done)
}

func TestGracefulServer_Reload(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler(), nil)
	if err := gs.Reload(); err != nil {
		t.Errorf("Reload() without function = %v", err)
	}

	called := false
	gs.SetReloadFunc(func() error {
		called = true
		return nil
	})
	if err := gs.Reload(); err != nil || !called {
		t.Errorf("Reload() = %v, called = %v", err, called)
	}

	wantErr := errors.New("bad model")
	gs.SetReloadFunc(func() error { return wantErr })
	if err := gs.Reload(); !errors.Is(err, wantErr) {
		t.Errorf("Reload() error = %v, want %v", err, wantErr)
	}
}

func TestGracefulServer_ListenError(t *testing.T) {
	gs := NewGracefulServer("256.0.0.1:bad", okHandler(), nil)
	if err := gs.Run(context.Background()); err == nil {
		t.Error("expected listen error")
	}
}

func TestGracefulServer_SetTimeouts(t *testing.T) {
	gs := NewGracefulServer(":0", okHandler(), nil)
	gs.SetTimeouts(5*time.Second, 0)
	if gs.server.ReadTimeout != 5*time.Second {
		t.Errorf("ReadTimeout = %v", gs.server.ReadTimeout)
	}
	if gs.server.WriteTimeout != 120*time.Second {
		t.Errorf("WriteTimeout changed to %v", gs.server.WriteTimeout)
	}
}
