// Package api provides the HTTP server that hosts the dashboard.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dsrs-analytics/taskdash/internal/dashboard"
)

const shutdownTimeout = 5 * time.Second

// Renderer produces dashboard views. *dashboard.Service satisfies it.
type Renderer interface {
	Render(ctx context.Context) *dashboard.View
	Refresh(ctx context.Context)
}

// AuthChecker verifies the Asana credentials. *asana.Client satisfies it.
type AuthChecker interface {
	CheckAuth(ctx context.Context) (string, error)
}

// Config holds server configuration.
type Config struct {
	Addr      string
	Dashboard Renderer
	// Checker is optional; without it /api/asana/check returns 404.
	Checker AuthChecker
	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// Server is the taskdash HTTP server.
type Server struct {
	addr      string
	router    chi.Router
	dashboard Renderer
	checker   AuthChecker
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
}

// New creates a new server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		addr:      cfg.Addr,
		router:    chi.NewRouter(),
		dashboard: cfg.Dashboard,
		checker:   cfg.Checker,
		gatherer:  gatherer,
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// StartContext listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) StartContext(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, cancel := context.WithCancel(ctx)
	shutdownDone := make(chan struct{})

	go func() {
		defer close(shutdownDone)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("server shutdown", "error", err)
		}
	}()

	s.logger.Info("starting dashboard server", "addr", ln.Addr().String())
	err := server.Serve(ln)
	// Serve may fail before ctx ends; release the shutdown goroutine either way.
	cancel()
	<-shutdownDone
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
