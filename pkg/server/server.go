package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/danhoran/volpulse/internal/store"
	"github.com/danhoran/volpulse/pkg/dashboard"
	"github.com/rs/zerolog"
)

// Server provides the HTTP API. Every dashboard request triggers a fresh
// aggregation run; the archive endpoints only read recorded history.
type Server struct {
	builder *dashboard.Builder
	store   store.Store
	scope   dashboard.Scope
	log     zerolog.Logger
	httpSrv *http.Server
}

// New creates a new HTTP server. st may be nil, disabling the runs API.
func New(builder *dashboard.Builder, st store.Store, scope dashboard.Scope, log zerolog.Logger, port int) *Server {
	if port == 0 {
		port = 8080
	}
	s := &Server{
		builder: builder,
		store:   st,
		scope:   scope,
		log:     log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/v1/runs", s.handleRuns)
	mux.HandleFunc("/api/v1/runs/", s.handleRun)

	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe starts the HTTP server. Returns http.ErrServerClosed
// after Shutdown.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.httpSrv.Addr).Msg("volpulse server listening")
	return s.httpSrv.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpSrv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	scope := s.scope
	if owner := r.URL.Query().Get("owner"); owner != "" {
		scope = dashboard.Scope{OwnerID: owner}
	}

	vm, err := s.builder.Build(r.Context(), scope)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}

	if s.store != nil {
		if err := s.store.SaveRun(r.Context(), vm); err != nil {
			s.log.Error().Err(err).Str("run_id", vm.RunID).Msg("archive run failed")
		}
	}

	writeJSON(w, http.StatusOK, vm)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run archive disabled"})
		return
	}

	opts := store.ListOpts{Limit: 50, Scope: r.URL.Query().Get("scope")}
	runs, err := s.store.ListRuns(r.Context(), opts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  runs,
		"count": len(runs),
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run archive disabled"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/runs/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing run id"})
		return
	}

	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
