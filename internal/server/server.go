package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/internal/config"
	"github.com/agrisense/agridata/internal/observability/metrics"
	"github.com/agrisense/agridata/internal/pipeline"
	"github.com/agrisense/agridata/pkg/constants"
	apperrors "github.com/agrisense/agridata/pkg/errors"
)

// Server exposes the pipeline over HTTP: trigger runs, fetch the latest
// quality report, health and Prometheus metrics.
type Server struct {
	logger     *logrus.Logger
	config     *config.ServerConfig
	service    *pipeline.Service
	metrics    *metrics.PipelineMetrics
	router     *mux.Router
	httpServer *http.Server
}

// NewServer creates the HTTP server around an existing pipeline service.
func NewServer(cfg *config.ServerConfig, service *pipeline.Service, m *metrics.PipelineMetrics, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}

	s := &Server{
		logger:  logger,
		config:  cfg,
		service: service,
		metrics: m,
		router:  mux.NewRouter(),
	}
	s.routes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

func (s *Server) routes() {
	s.router.HandleFunc(constants.HealthPath, s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.router.Handle(constants.MetricsPath, s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := s.router.PathPrefix(constants.APIPrefix).Subrouter()
	api.HandleFunc("/pipeline/run", s.handleRun).Methods(http.MethodPost)
	api.HandleFunc("/reports/latest", s.handleLatestReport).Methods(http.MethodGet)
}

// Start begins serving and blocks until the listener stops.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Handler returns the configured router, for serving through a custom
// listener and for handler tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": constants.AppName,
		"version": constants.AppVersion,
		"time":    time.Now().UTC(),
	})
}

// handleRun processes all pending raw files synchronously; the request
// returns when the last file is done.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.service.ProcessPending(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"processed": len(summaries),
		"runs":      summaries,
	})
}

func (s *Server) handleLatestReport(w http.ResponseWriter, r *http.Request) {
	result := s.service.LastResult()
	if result == nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "no completed runs",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, result.Report)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if appErr, ok := err.(*apperrors.AppError); ok && appErr.HTTPStatus != 0 {
		status = appErr.HTTPStatus
	}
	s.logger.WithError(err).Error("Request failed")
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
