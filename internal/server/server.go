package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"DealEventScraper/internal/metrics"
	"DealEventScraper/internal/ports"
	"DealEventScraper/internal/usecase"
)

// BatchTrigger is the slice of the scheduler the HTTP surface drives.
type BatchTrigger interface {
	RunBatch(ctx context.Context, trigger string, req usecase.BatchRequest) usecase.BatchReport
	LastBatch() (usecase.BatchReport, bool)
	Running() bool
}

// Deps wires the server to the rest of the application.
type Deps struct {
	Addr      string
	APIKey    string
	Scheduler BatchTrigger
	Deals     ports.DealStore
	Events    ports.EventStore
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	Clock     func() time.Time
}

// Server manages the HTTP server and routes.
type Server struct {
	deps   Deps
	logger *slog.Logger
	now    func() time.Time
	// async launches accepted batches; tests swap it for a synchronous runner.
	async  func(func())
	router *http.ServeMux
	server *http.Server
}

// New creates the HTTP server.
func New(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	s := &Server{
		deps:   deps,
		logger: logger.With("component", "http"),
		now:    clock,
		async:  func(fn func()) { go fn() },
	}
	s.router = s.setupRoutes()
	s.server = &http.Server{
		Addr:              deps.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.withMiddleware(s.router)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops accepting requests and drains open ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("HTTP server stopped")
	return nil
}
