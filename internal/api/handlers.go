package api

import (
	"bytes"
	"net/http"
	"strconv"
)

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, map[string]string{"status": "ok"})
}

// handleIndex renders the dashboard page. Fetch failures show up as
// notices on the page; only a template failure returns an error status.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	refresh, ok := refreshParam(w, r)
	if !ok {
		return
	}
	if refresh {
		s.dashboard.Refresh(r.Context())
	}

	view := s.dashboard.Render(r.Context())

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, view); err != nil {
		LoggerFrom(r.Context()).Error("render page", "error", err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = buf.WriteTo(w)
}

// handleDashboard returns the view as JSON. ?refresh=1 drops the fetch cache first.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	refresh, ok := refreshParam(w, r)
	if !ok {
		return
	}
	if refresh {
		s.dashboard.Refresh(r.Context())
	}
	w.Header().Set("Cache-Control", "no-store")
	JSONResponse(w, s.dashboard.Render(r.Context()))
}

// handleAsanaCheck verifies the configured token against Asana.
func (s *Server) handleAsanaCheck(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		JSONError(w, "asana check not configured", http.StatusNotFound)
		return
	}
	name, err := s.checker.CheckAuth(r.Context())
	if err != nil {
		LoggerFrom(r.Context()).Warn("asana auth check failed", "error", err)
		HandleError(w, err)
		return
	}
	JSONResponse(w, map[string]string{"status": "ok", "user": name})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	JSONError(w, "not found", http.StatusNotFound)
}

// refreshParam parses ?refresh. It writes a 400 and returns ok=false on a bad value.
func refreshParam(w http.ResponseWriter, r *http.Request) (refresh, ok bool) {
	raw := r.URL.Query().Get("refresh")
	if raw == "" {
		return false, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		JSONError(w, "refresh must be a boolean", http.StatusBadRequest)
		return false, false
	}
	return v, true
}
