// Package api provides the HTTP surface: computation triggers for the
// external job runner and read endpoints for leaderboards and performance
// history.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/portfolio-engine/internal/logging"
	"github.com/portfolio-engine/internal/metrics"
	"github.com/portfolio-engine/internal/models"
	"github.com/portfolio-engine/internal/timeseries"
)

// ComputationService triggers the batch computations.
type ComputationService interface {
	ComputeSessionPerformance(ctx context.Context, sessionID string) error
	ComputeAndStoreSessionRankings(ctx context.Context, sessionID string) error
	ComputeAllActiveSessionsPerformance(ctx context.Context) error
}

// RankingReader serves persisted leaderboards.
type RankingReader interface {
	ListForSession(ctx context.Context, sessionID string) ([]models.RankingRecord, error)
}

// PerformanceReader serves persisted performance history.
type PerformanceReader interface {
	GetRange(ctx context.Context, portfolioID string, start, end timeseries.Date) ([]models.PerformanceRecord, error)
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Server is the HTTP API server.
type Server struct {
	router      *mux.Router
	httpServer  *http.Server
	computation ComputationService
	rankings    RankingReader
	performance PerformanceReader
	config      *ServerConfig
	log         *logging.Logger
}

func NewServer(
	config *ServerConfig,
	computation ComputationService,
	rankings RankingReader,
	performance PerformanceReader,
	log *logging.Logger,
) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		computation: computation,
		rankings:    rankings,
		performance: performance,
		config:      config,
		log:         log.WithField("component", "api"),
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(metrics.Middleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", metrics.Handler()).Methods("GET")

	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/sessions/{sessionID}/performance", s.handleComputePerformance).Methods("POST")
	api.HandleFunc("/sessions/{sessionID}/rankings", s.handleComputeRankings).Methods("POST")
	api.HandleFunc("/performance/run", s.handleRunAll).Methods("POST")

	api.HandleFunc("/sessions/{sessionID}/rankings", s.handleGetRankings).Methods("GET")
	api.HandleFunc("/portfolios/{portfolioID}/performance", s.handleGetPerformance).Methods("GET")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "portfolio-engine",
	})
}

// Handler exposes the configured router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it exits.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
