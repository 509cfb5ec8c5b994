// Package server exposes the contract pipeline over HTTP.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/contractintel/contract-intel/internal/common"
	"github.com/contractintel/contract-intel/internal/export"
	"github.com/contractintel/contract-intel/internal/pipeline"
	"github.com/contractintel/contract-intel/internal/store"
)

// Server wires the HTTP surface to the store, the processing queue, and the
// export service.
type Server struct {
	store     store.ContractStore
	queue     *pipeline.Queue
	exporter  *export.Service
	logger    *slog.Logger
	maxUpload int64
	router    *mux.Router
}

func New(st store.ContractStore, q *pipeline.Queue, exp *export.Service, maxUpload int64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	s := &Server{
		store:     st,
		queue:     q,
		exporter:  exp,
		logger:    logger,
		maxUpload: maxUpload,
		router:    mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Router() *mux.Router {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(s.requestLogger)
	s.router.Use(s.recoverer)

	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	s.router.HandleFunc("/contracts/upload", s.upload).Methods(http.MethodPost)
	s.router.HandleFunc("/contracts", s.list).Methods(http.MethodGet)
	s.router.HandleFunc("/contracts/{id}/status", s.status).Methods(http.MethodGet)
	s.router.HandleFunc("/contracts/{id}/export", s.exportXLSX).Methods(http.MethodGet)
	s.router.HandleFunc("/contracts/{id}", s.result).Methods(http.MethodGet)
	s.router.HandleFunc("/contracts/{id}", s.remove).Methods(http.MethodDelete)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := uuid.New().String()
		r = r.WithContext(common.WithRequestID(r.Context(), reqID))
		next.ServeHTTP(w, r)
		s.logger.Info("http.request",
			"req_id", reqID,
			"method", r.Method,
			"path", r.URL.Path,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log(r).Error("http.panic", "path", r.URL.Path, "panic", rec)
				s.respondError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// log returns the server logger tagged with the request ID injected by
// requestLogger, so handler errors correlate with the access log line.
func (s *Server) log(r *http.Request) *slog.Logger {
	return s.logger.With("req_id", common.RequestIDFromContext(r.Context()))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("http.encode_error", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// contractID parses the {id} path variable, writing the error response
// itself when the ID is malformed.
func (s *Server) contractID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid contract id")
		return uuid.Nil, false
	}
	return id, true
}
