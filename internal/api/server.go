// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	handler "github.com/newthinker/prism/internal/api/handler/api"
	"github.com/newthinker/prism/internal/api/job"
	"github.com/newthinker/prism/internal/api/middleware"
	"github.com/newthinker/prism/internal/metrics"
	"github.com/newthinker/prism/internal/regime"
	"github.com/newthinker/prism/internal/strategy"
)

// Server is the HTTP front end: walk-forward job management, regime
// classification and operational endpoints.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
	jobStore   *job.Store
}

// Config holds server configuration
type Config struct {
	Host        string
	Port        int
	APIKey      string
	MetricsPath string
}

// Dependencies carries everything the handlers need.
type Dependencies struct {
	JobStore    *job.Store
	Runner      handler.Runner
	RegimeStore *regime.ConfigStore
	Strategies  *strategy.Registry
	Metrics     *metrics.Registry
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.JobStore == nil {
		return nil, fmt.Errorf("job store is required")
	}

	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      mux,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger:   logger,
		mux:      mux,
		jobStore: deps.JobStore,
	}

	s.setupRoutes(cfg, deps)
	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	wf := handler.NewWalkForwardHandler(deps.JobStore, deps.Runner)
	rg := handler.NewRegimeHandler(deps.RegimeStore)
	st := handler.NewStrategiesHandler(deps.Strategies)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("POST /api/v1/walkforward", wf.Create)
	apiMux.HandleFunc("GET /api/v1/walkforward/{id}", func(w http.ResponseWriter, r *http.Request) {
		wf.GetStatus(w, r, r.PathValue("id"))
	})
	apiMux.HandleFunc("POST /api/v1/regime/classify", rg.Classify)
	apiMux.HandleFunc("GET /api/v1/regime/definitions", rg.Definitions)
	apiMux.HandleFunc("POST /api/v1/regime/reload", rg.Reload)
	apiMux.HandleFunc("GET /api/v1/strategies", st.List)

	var apiHandler http.Handler = apiMux
	apiHandler = middleware.APIKeyAuth(cfg.APIKey)(apiHandler)
	if deps.Metrics != nil {
		apiHandler = metrics.HTTPMiddleware(deps.Metrics)(apiHandler)
	}
	apiHandler = metrics.LoggingMiddleware(s.logger)(apiHandler)

	s.mux.Handle("/api/v1/", apiHandler)
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if deps.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.mux.Handle(path, promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
