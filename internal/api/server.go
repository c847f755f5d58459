// Package api serves the planner over HTTP: the JSON endpoint, the static
// front-end and the health, readiness and metrics probes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pedagoplay/internal/common/errors"
	"pedagoplay/internal/common/logger"
	"pedagoplay/internal/common/metrics"
	planactivities "pedagoplay/internal/workers/activities/plan-activities"
)

const (
	maxBodyBytes = 1 << 20
	checkTimeout = 2 * time.Second
)

// Planner is satisfied by *planactivities.Service.
type Planner interface {
	Execute(ctx context.Context, input *planactivities.Input) *planactivities.PlanningResult
}

// Check reports whether a dependency is ready.
type Check func(ctx context.Context) error

type Options struct {
	Planner        Planner
	Logger         logger.Logger
	StaticDir      string
	AllowedOrigins []string
	Checks         map[string]Check
}

type Server struct {
	planner Planner
	logger  logger.Logger
	origins []string
	checks  map[string]Check
	mux     *http.ServeMux
}

func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	s := &Server{
		planner: opts.Planner,
		logger:  log,
		origins: origins,
		checks:  opts.Checks,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /api/activities", s.handleActivities)
	s.registerProbes(s.mux)
	if opts.StaticDir != "" {
		files := http.FileServer(http.Dir(opts.StaticDir))
		s.mux.Handle("GET /static/", http.StripPrefix("/static/", files))
		s.mux.Handle("GET /", files)
	}
	return s
}

// Handler returns the full application handler.
func (s *Server) Handler() http.Handler {
	return s.withRequestID(s.withCORS(s.mux))
}

// OpsHandler serves only the probes, for the separate metrics listener.
func (s *Server) OpsHandler() http.Handler {
	mux := http.NewServeMux()
	s.registerProbes(mux)
	return mux
}

func (s *Server) registerProbes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /ready", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var variables map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&variables); err != nil {
		s.writeBadRequest(w, errors.NewInputParsingFailedError(err))
		return
	}

	input, err := planactivities.DecodeInput(variables)
	if err != nil {
		s.writeBadRequest(w, err)
		return
	}

	ctx := planactivities.WithRequestID(r.Context(), w.Header().Get("X-Request-ID"))
	result := s.planner.Execute(ctx, input)

	w.Header().Set("X-Activity-Source", string(result.Source))
	writeJSON(w, http.StatusOK, result.Output)
}

func (s *Server) writeBadRequest(w http.ResponseWriter, err error) {
	stdErr := errors.Normalize(err)
	msg := stdErr.Message
	if stdErr.Details != "" {
		msg = fmt.Sprintf("%s: %s", stdErr.Message, stdErr.Details)
	}

	s.logger.Warn("Rejected planning request", map[string]interface{}{
		"errorCode": string(stdErr.Code),
		"error":     msg,
	})
	writeJSON(w, http.StatusBadRequest, planactivities.Output{Success: false, Error: &msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	failures := map[string]string{}
	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
		cancel()
	}

	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not ready",
			"failures": failures,
			"time":     time.Now().Format(time.RFC3339),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// ==========================
// Middleware
// ==========================

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		metrics.HTTPRequests.WithLabelValues(routeLabel(r.URL.Path), strconv.Itoa(rec.status)).Inc()
		s.logger.Info("HTTP request", map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"durationMs": time.Since(start).Milliseconds(),
			"requestId":  id,
		})
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			if allowed := s.allowOrigin(origin); allowed != "" {
				w.Header().Set("Access-Control-Allow-Origin", allowed)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
				w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Activity-Source")
				w.Header().Add("Vary", "Origin")
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) allowOrigin(origin string) string {
	for _, o := range s.origins {
		if o == "*" {
			return "*"
		}
		if strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

func routeLabel(path string) string {
	switch path {
	case "/api/activities", "/health", "/ready", "/metrics":
		return path
	default:
		return "static"
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
