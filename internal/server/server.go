// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research pipeline over HTTP. POST /research
// streams a run's events as Server-Sent Events; GET /history lists stored
// reports.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/research-agent/internal/agent"
	"github.com/pdiddy/research-agent/internal/store"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Runner starts a pipeline run. *agent.Agent satisfies it.
type Runner interface {
	Run(ctx context.Context, query string) (<-chan types.Event, error)
}

// History reads stored reports. *store.Store satisfies it.
type History interface {
	List(ctx context.Context, limit int) ([]types.StoredReport, error)
	Get(ctx context.Context, id string) (types.StoredReport, error)
}

// Server is the HTTP front end for the research agent.
type Server struct {
	runner  Runner
	history History
	addr    string
	log     *zap.Logger
}

// New creates a server listening on addr.
func New(runner Runner, history History, addr string, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{runner: runner, history: history, addr: addr, log: log}
}

// Handler returns the routed handler with logging and CORS applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /research", s.handleResearch)
	mux.HandleFunc("GET /history", s.handleHistory)
	mux.HandleFunc("GET /history/{id}", s.handleReport)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return corsMiddleware(s.loggingMiddleware(mux))
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type researchRequest struct {
	Query string `json:"query"`
}

// handleResearch runs the pipeline for the posted query. The default
// response is an SSE stream with one "data:" line per event. A client
// sending Accept: application/json gets the final report as one JSON object
// instead.
func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	var req researchRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON body"})
			return
		}
	} else {
		req.Query = r.FormValue("query")
	}

	if strings.TrimSpace(req.Query) == "" {
		s.log.Warn("received empty query", zap.String("path", r.URL.Path))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing query"})
		return
	}

	events, err := s.runner.Run(r.Context(), req.Query)
	if errors.Is(err, agent.ErrInvalidInput) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing query"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if wantsJSON(r.Header.Get("Accept")) {
		s.respondJSON(w, events)
		return
	}
	s.stream(w, r, events)
}

// wantsJSON reports whether an Accept header lists application/json and
// does not also ask for an event stream.
func wantsJSON(accept string) bool {
	found := false
	for _, part := range strings.Split(accept, ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case "text/event-stream":
			return false
		case "application/json":
			found = true
		}
	}
	return found
}

func (s *Server) stream(w http.ResponseWriter, r *http.Request, events <-chan types.Event) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		// Drain so the producer is not left blocked.
		agent.Collect(events)
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		if err := sendSSE(w, flusher, ev); err != nil {
			s.log.Debug("client went away", zap.Error(err))
			// The request context is cancelled, so the run stops; keep
			// draining until it closes the channel.
			continue
		}
	}
	if r.Context().Err() != nil {
		s.log.Info("research stream cancelled by client")
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, events <-chan types.Event) {
	var terminal types.Event
	for ev := range events {
		if ev.Terminal() {
			terminal = ev
		}
	}
	switch terminal.Type {
	case types.EventReport:
		writeJSON(w, http.StatusOK, map[string]string{"report": terminal.Report})
	case types.EventError:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": terminal.Message})
	default:
		// Cancelled; nobody is listening.
	}
}

func sendSSE(w http.ResponseWriter, flusher http.Flusher, ev types.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid limit"})
			return
		}
		limit = n
	}

	reports, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.log.Error("listing history failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": reports})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.history.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Report not found"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
