package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mikey/phishing-filter/internal/core"
	"go.uber.org/zap"
)

// Server is the HTTP service boundary: one ParsedMessage in, one Report out.
type Server struct {
	srv     *http.Server
	service *core.AnalysisService
	store   core.ThreatStore
	logger  *zap.Logger
}

// NewServer creates the HTTP server on the given listen address.
func NewServer(addr string, service *core.AnalysisService, store core.ThreatStore, logger *zap.Logger) *Server {
	s := &Server{
		service: service,
		store:   store,
		logger:  logger,
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes builds the chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/analyze", s.handleAnalyze)
	r.Post("/v1/intel/refresh", s.handleRefresh)
	return r
}

// Start begins serving in the background.
func (s *Server) Start() error {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server stopped", zap.Error(err))
		}
	}()
	s.logger.Info("HTTP server listening", zap.String("addr", s.srv.Addr))
	return nil
}

// Stop drains and shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAnalyze runs the pipeline for one message.
//
// Status mapping: 400 for malformed input, 200 for success and for
// partial/degraded analyses (the Report's diagnostics carry the
// degradation), 500 for unexpected internal failure.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var msg core.ParsedMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid message document: "+err.Error())
		return
	}

	report, err := s.service.AnalyzeMessage(r.Context(), &msg)
	if err != nil {
		if core.IsMalformed(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("Analysis failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal failure")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleRefresh applies an indicator batch to the threat store.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var batch []core.Indicator
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid indicator batch: "+err.Error())
		return
	}

	if err := s.store.Refresh(r.Context(), batch); err != nil {
		s.logger.Error("Indicator refresh failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"applied": len(batch)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
