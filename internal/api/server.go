// Package api provides the HTTP server for PathPilot.
// It exposes session engagement, the career advisor chat, resume analysis
// and the read-only catalogs as a JSON REST API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/futurenavigators/pathpilot/internal/app/advisor"
	"github.com/futurenavigators/pathpilot/internal/app/engagement"
	"github.com/futurenavigators/pathpilot/internal/app/resume"
	"github.com/futurenavigators/pathpilot/internal/app/session"
	"github.com/futurenavigators/pathpilot/internal/domain"
	"github.com/futurenavigators/pathpilot/internal/health"
	"github.com/futurenavigators/pathpilot/internal/infra/metrics"
)

// DefaultMaxUploadBytes caps resume uploads.
const DefaultMaxUploadBytes = 10 << 20

// Server is the PathPilot HTTP API server.
type Server struct {
	sessions *session.Registry
	engine   *engagement.Engine
	advisor  *advisor.Advisor
	resume   *resume.Analyzer
	log      *zap.Logger
	health   *health.Checker
	insights Insights

	metricsEnabled bool
	maxUpload      int64
	version        string
}

// NewServer creates a new API server.
func NewServer(sessions *session.Registry, eng *engagement.Engine, adv *advisor.Advisor, an *resume.Analyzer, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		sessions:  sessions,
		engine:    eng,
		advisor:   adv,
		resume:    an,
		log:       log,
		maxUpload: DefaultMaxUploadBytes,
		version:   "dev",
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetMaxUploadBytes caps the size of uploaded resumes.
func (s *Server) SetMaxUploadBytes(n int64) {
	if n > 0 {
		s.maxUpload = n
	}
}

// SetHealth attaches the dependency checker reported by /health.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// SetVersion sets the version reported by /api/version.
func (s *Server) SetVersion(v string) { s.version = v }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))
	r.Use(corsMiddleware)
	r.Use(instrument)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{
				"version": s.version,
			})
		})

		// Read-only catalogs
		r.Get("/badges", s.handleBadges)
		r.Get("/goals", s.handleGoalCatalog)
		r.Get("/motivation", s.handleMotivation)
		r.Get("/resources", s.handleResources)

		r.Post("/resume", s.handleResume)
		r.Get("/insights", s.handleInsights)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/stats", s.handleStats)
			r.Post("/checkin", s.handleCheckIn)
			r.Put("/goals", s.handleSetGoals)
			r.Put("/goals/{goal}/progress", s.handleGoalProgress)
			r.Post("/tasks", s.handleAddTask)
			r.Put("/tasks/{name}", s.handleSetTaskDone)
			r.Delete("/tasks/{name}", s.handleRemoveTask)
			r.Post("/weekly/evaluate", s.handleEvaluateWeekly)
			r.Get("/leaderboard", s.handleLeaderboard)

			r.Post("/ask", s.handleAsk)
			r.Get("/chat", s.handleHistory)
			r.Delete("/chat", s.handleClearHistory)
			r.Get("/chat/export", s.handleExportHistory)
			r.Put("/chat/{recordID}/feedback", s.handleFeedback)
		})
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

type healthResponse struct {
	Status string          `json:"status"`
	Checks []health.Status `json:"checks,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
		return
	}
	resp := healthResponse{Status: "ok", Checks: s.health.Statuses()}
	code := http.StatusOK
	if !s.health.IsHealthy() {
		resp.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeErrorType(w, status, msg, "error")
}

func writeErrorType(w http.ResponseWriter, status int, msg, typ string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    typ,
		},
	})
}

// writeDomainError maps domain errors onto HTTP statuses.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusConflict:
		writeErrorType(w, status, err.Error(), "notice")
		return
	case http.StatusInternalServerError:
		s.log.Error("request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrRecordNotFound),
		errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyCheckedInToday):
		return http.StatusConflict
	case errors.Is(err, domain.ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNoConfidentMatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidGoal),
		errors.Is(err, domain.ErrUnknownGoal),
		errors.Is(err, domain.ErrProgressOutOfRange),
		errors.Is(err, domain.ErrEmptyTaskName),
		errors.Is(err, domain.ErrEmptyQuestion),
		errors.Is(err, domain.ErrInvalidFeedback),
		errors.Is(err, domain.ErrUnsupportedDocument),
		errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// ─── Middleware ─────────────────────────────────────────────────────────────

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// instrument counts requests by route pattern and status.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
