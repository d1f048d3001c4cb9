// Package server runs an HTTP handler until a signal or context ends it.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/validation"
)

// DefaultShutdownTimeout bounds how long in-flight predictions may drain.
const DefaultShutdownTimeout = 30 * time.Second

// ReloadFunc reloads configuration or the served model on SIGHUP.
type ReloadFunc func() error

// GracefulServer wraps an HTTP server with graceful shutdown capabilities
type GracefulServer struct {
	server          *http.Server
	logger          logging.Logger
	ShutdownTimeout time.Duration

	started      chan struct{}
	shutdownCh   chan struct{}
	shutdownOnce sync.Once

	mu       sync.RWMutex
	addr     net.Addr
	reloadFn ReloadFunc
}

// NewGracefulServer creates a new graceful HTTP server
func NewGracefulServer(addr string, handler http.Handler, logger logging.Logger) *GracefulServer {
	return &GracefulServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      120 * time.Second,
			IdleTimeout:       120 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger:          logging.OrNop(logger),
		ShutdownTimeout: DefaultShutdownTimeout,
		started:         make(chan struct{}),
		shutdownCh:      make(chan struct{}),
	}
}

// SetTimeouts overrides the read and write timeouts. Zero keeps the
// current value.
func (gs *GracefulServer) SetTimeouts(read, write time.Duration) {
	gs.server.ReadTimeout = validation.DefaultOrDuration(read, gs.server.ReadTimeout)
	gs.server.WriteTimeout = validation.DefaultOrDuration(write, gs.server.WriteTimeout)
}

// Run listens and serves until ctx is done, SIGINT/SIGTERM arrives or
// Shutdown is called. SIGHUP triggers Reload. A clean shutdown returns nil.
func (gs *GracefulServer) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", gs.server.Addr)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	gs.mu.Lock()
	gs.addr = ln.Addr()
	gs.mu.Unlock()
	close(gs.started)

	serveErr := make(chan error, 1)
	go func() {
		gs.logger.Info("server listening", logging.String("addr", ln.Addr().String()))
		serveErr <- gs.server.Serve(ln)
	}()

	for {
		select {
		case err := <-serveErr:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			return gs.shutdownAndWait(serveErr)
		case <-gs.shutdownCh:
			return gs.shutdownAndWait(serveErr)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				_ = gs.Reload()
				continue
			}
			gs.logger.Info("shutdown signal received", logging.String("signal", sig.String()))
			return gs.shutdownAndWait(serveErr)
		}
	}
}

func (gs *GracefulServer) shutdownAndWait(serveErr <-chan error) error {
	if err := gs.Shutdown(gs.ShutdownTimeout); err != nil {
		return err
	}
	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits up to timeout for
// in-flight requests.
func (gs *GracefulServer) Shutdown(timeout time.Duration) error {
	var err error
	gs.shutdownOnce.Do(func() {
		close(gs.shutdownCh)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		gs.logger.Info("initiating graceful shutdown", logging.Duration("timeout", timeout))
		if err = gs.server.Shutdown(ctx); err != nil {
			gs.logger.Error("shutdown failed", logging.Error(err))
			return
		}
		gs.logger.Info("server shutdown complete")
	})
	return err
}

// Started is closed once Run is listening and signal handling is in place.
func (gs *GracefulServer) Started() <-chan struct{} {
	return gs.started
}

// Addr returns the bound address, nil before Run starts listening.
func (gs *GracefulServer) Addr() net.Addr {
	gs.mu.RLock()
	defer gs.mu.RUnlock()
	return gs.addr
}

// IsShuttingDown returns true if shutdown has been initiated
func (gs *GracefulServer) IsShuttingDown() bool {
	select {
	case <-gs.shutdownCh:
		return true
	default:
		return false
	}
}

// SetReloadFunc sets the function called by Reload.
func (gs *GracefulServer) SetReloadFunc(fn ReloadFunc) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.reloadFn = fn
}

// Reload runs the reload function, if any. Failures are logged and the
// server keeps its current state.
func (gs *GracefulServer) Reload() error {
	gs.mu.RLock()
	fn := gs.reloadFn
	gs.mu.RUnlock()

	if fn == nil {
		gs.logger.Warn("reload requested, but no reload function configured")
		return nil
	}

	timer := logging.StartTimer(gs.logger, "reload complete")
	if err := fn(); err != nil {
		timer.EndError(err)
		return err
	}
	timer.End()
	return nil
}
