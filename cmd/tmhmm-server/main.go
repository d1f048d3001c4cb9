// Command tmhmm-server serves topology predictions over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-tmhmm/pkg/api"
	"github.com/dd0wney/cluso-tmhmm/pkg/config"
	"github.com/dd0wney/cluso-tmhmm/pkg/inference"
	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/metrics"
	"github.com/dd0wney/cluso-tmhmm/pkg/model"
	"github.com/dd0wney/cluso-tmhmm/pkg/server"
	"github.com/dd0wney/cluso-tmhmm/pkg/store"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "tmhmm-server: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.NewJSONLogger(os.Stderr, cfg.Level())
	reg := metrics.DefaultRegistry()

	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN, reg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	engine, err := prepareEngine(ctx, cfg, st, logger, reg)
	if err != nil {
		return err
	}

	method, err := inference.ParseMethod(cfg.Decode.Method)
	if err != nil {
		return err
	}
	srv := api.NewServer(engine, cfg.Model.Name, api.Options{
		Logger:        logger,
		Metrics:       reg,
		Store:         st,
		Workers:       cfg.Decode.Workers,
		DefaultMethod: method,
		MaxBatch:      cfg.Server.MaxBatch,
		HeapLimit:     cfg.Server.HeapLimitMB << 20,
	})

	gs := server.NewGracefulServer(cfg.Server.Listen, srv.Handler(), logger)
	gs.SetTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)
	if cfg.Server.ShutdownTimeout > 0 {
		gs.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}
	gs.SetReloadFunc(func() error {
		next, err := config.Load(configPath)
		if err != nil {
			return err
		}
		// a reload always recompiles from the model description
		m, err := next.Model.Compile(logger, reg)
		if err != nil {
			return err
		}
		e, err := newEngine(m, logger, reg)
		if err != nil {
			return err
		}
		if _, err := st.Save(ctx, next.Model.Name, m); err != nil {
			logger.Warn("reloaded model not stored", logging.Error(err))
		}
		srv.SetEngine(e, next.Model.Name)
		return nil
	})

	sysCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go srv.UpdateSystemMetrics(sysCtx, 10*time.Second)

	return gs.Run(ctx)
}

// prepareEngine loads the named model from the store, compiling and
// storing it on first use.
func prepareEngine(ctx context.Context, cfg *config.Config, st store.ModelStore, logger logging.Logger, reg *metrics.Registry) (*inference.Engine, error) {
	m, err := st.Load(ctx, cfg.Model.Name)
	switch {
	case err == nil:
		logger.Info("model loaded from store", logging.String("model", cfg.Model.Name))
	case errors.Is(err, store.ErrNotFound):
		if m, err = cfg.Model.Compile(logger, reg); err != nil {
			return nil, err
		}
		if _, err := st.Save(ctx, cfg.Model.Name, m); err != nil {
			return nil, fmt.Errorf("store model: %w", err)
		}
	default:
		return nil, fmt.Errorf("load model %s: %w", cfg.Model.Name, err)
	}
	return newEngine(m, logger, reg)
}

func newEngine(m *model.Model, logger logging.Logger, reg *metrics.Registry) (*inference.Engine, error) {
	return inference.NewEngine(m, inference.EngineOptions{Logger: logger, Metrics: reg})
}
