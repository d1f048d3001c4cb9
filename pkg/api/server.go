// Package api serves topology predictions over HTTP.
package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/cluso-tmhmm/pkg/api/middleware"
	"github.com/dd0wney/cluso-tmhmm/pkg/health"
	"github.com/dd0wney/cluso-tmhmm/pkg/inference"
	"github.com/dd0wney/cluso-tmhmm/pkg/logging"
	"github.com/dd0wney/cluso-tmhmm/pkg/metrics"
	"github.com/dd0wney/cluso-tmhmm/pkg/store"
	"github.com/dd0wney/cluso-tmhmm/pkg/validation"
)

// DefaultMaxBodyBytes fits a full batch of maximum-length sequences.
const DefaultMaxBodyBytes = 64 << 20

// canaryResidues is decoded by the readiness check.
const canaryResidues = "MKLLVLGLLLAAALAVSAQA"

// Options configures a Server.
type Options struct {
	Logger        logging.Logger
	Metrics       *metrics.Registry
	Store         store.ModelStore
	Workers       int
	DefaultMethod inference.Method
	MaxBatch      int
	MaxBodyBytes  int64
	HeapLimit     uint64 // bytes; 0 disables the memory check
}

// DefaultOptions returns options for a single-process deployment.
func DefaultOptions() Options {
	return Options{
		Workers:       4,
		DefaultMethod: inference.Viterbi,
		MaxBatch:      validation.MaxBatchSize,
		MaxBodyBytes:  DefaultMaxBodyBytes,
	}
}

// Server represents the HTTP API server
type Server struct {
	opts    Options
	logger  logging.Logger
	health  *health.HealthChecker
	router  *mux.Router
	started time.Time

	mu        sync.RWMutex
	engine    *inference.Engine
	modelName string
}

// NewServer builds the router around engine. The engine may be swapped
// later with SetEngine.
func NewServer(engine *inference.Engine, modelName string, opts Options) *Server {
	def := DefaultOptions()
	opts.Workers = validation.DefaultOrInt(opts.Workers, def.Workers)
	opts.DefaultMethod = validation.DefaultOr(opts.DefaultMethod, def.DefaultMethod)
	if opts.MaxBatch <= 0 || opts.MaxBatch > validation.MaxBatchSize {
		opts.MaxBatch = def.MaxBatch
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = def.MaxBodyBytes
	}

	s := &Server{
		opts:      opts,
		logger:    logging.OrNop(opts.Logger).With(logging.Component("api")),
		health:    health.NewHealthChecker(),
		started:   time.Now(),
		engine:    engine,
		modelName: modelName,
	}
	s.registerChecks()
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(s.logger))
	r.Use(middleware.PanicRecovery(s.logger))
	if s.opts.Metrics != nil {
		r.Use(middleware.Metrics(s.opts.Metrics))
	}

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.Use(middleware.BodySizeLimit(s.opts.MaxBodyBytes))
	v1.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	v1.HandleFunc("/predict/batch", s.handleBatchPredict).Methods(http.MethodPost)
	v1.HandleFunc("/model", s.handleModel).Methods(http.MethodGet)
	v1.HandleFunc("/models", s.handleListModels).Methods(http.MethodGet)

	r.HandleFunc("/health", s.health.HTTPHandler()).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.health.ReadinessHandler()).Methods(http.MethodGet)
	if s.opts.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.opts.Metrics.GetPrometheusRegistry(), promhttp.HandlerOpts{})).
			Methods(http.MethodGet)
	}

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

func (s *Server) registerChecks() {
	s.health.RegisterCheck("model", func(ctx context.Context) health.Check {
		return health.ModelCheck(s.Engine().Model())(ctx)
	})
	if s.opts.Store != nil {
		s.health.RegisterCheck("store", health.StoreCheck(func(ctx context.Context) error {
			_, err := s.opts.Store.List(ctx)
			return err
		}))
	}
	if s.opts.HeapLimit > 0 {
		s.health.RegisterCheck("memory", health.MemoryCheck(s.opts.HeapLimit))
	}
	s.health.RegisterReadinessCheck("canary", health.CanaryCheck(func(ctx context.Context) (int, error) {
		p, err := s.Engine().Predict(ctx, "canary", canaryResidues, inference.Viterbi)
		if err != nil {
			return 0, err
		}
		return p.Helices, nil
	}))
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Engine returns the engine currently serving predictions.
func (s *Server) Engine() *inference.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// ModelName returns the name of the served model.
func (s *Server) ModelName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modelName
}

// SetEngine swaps the served engine. In-flight requests finish on the
// engine they started with.
func (s *Server) SetEngine(engine *inference.Engine, modelName string) {
	s.mu.Lock()
	s.engine = engine
	s.modelName = modelName
	s.mu.Unlock()
	s.logger.Info("model swapped", logging.String("model", modelName), logging.Count(engine.Model().NumStates()))
}

// UpdateSystemMetrics samples runtime metrics until ctx is done.
func (s *Server) UpdateSystemMetrics(ctx context.Context, every time.Duration) {
	if s.opts.Metrics == nil {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		s.opts.Metrics.UpdateSystemMetrics(s.started)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
