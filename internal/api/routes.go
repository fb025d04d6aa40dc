package api

import (
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// registerRoutes sets up all routes.
func (s *Server) registerRoutes() {
	r := s.router
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/dashboard", s.handleDashboard)
	r.Get("/api/asana/check", s.handleAsanaCheck)

	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.NotFound(s.handleNotFound)
}
