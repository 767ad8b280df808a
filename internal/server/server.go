// Package server exposes the pipeline over HTTP: triggering a run,
// fetching the latest ranked setups, health, and the live progress
// websocket (spec §5's operator-facing surface).
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/aristath/setuptrader/internal/progress"
	"github.com/aristath/setuptrader/internal/snapshot"
)

// Runner triggers one pipeline run and returns once it has finished (or
// been cancelled). The server holds no pipeline logic itself.
type Runner interface {
	TriggerRun(ctx context.Context) error
}

// Server wires the HTTP surface to the snapshot store, progress hub, and
// run trigger.
type Server struct {
	router  chi.Router
	store   *snapshot.Store
	hub     *progress.Hub
	runner  Runner
	log     zerolog.Logger
}

// New builds the HTTP handler tree.
func New(store *snapshot.Store, hub *progress.Hub, runner Runner, log zerolog.Logger) *Server {
	s := &Server{store: store, hub: hub, runner: runner, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Post("/runs", s.handleTriggerRun)
	r.Get("/runs/latest", s.handleLatestRun)
	r.Get("/runs/{runID}", s.handleGetRun)
	r.Get("/runs/progress", s.handleProgress)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := s.runner.TriggerRun(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("triggered run failed")
		}
	}()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered"})
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	runID, ok, err := s.store.Latest()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no runs yet"})
		return
	}
	s.writeRecord(w, runID)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	s.writeRecord(w, chi.URLParam(r, "runID"))
}

func (s *Server) writeRecord(w http.ResponseWriter, runID string) {
	rec, err := s.store.Read(runID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	if err := s.hub.ServeWS(r.Context(), conn); err != nil {
		s.log.Debug().Err(err).Msg("progress stream ended")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
