package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/complymap/complymap-cli/internal/analysis"
	"github.com/complymap/complymap-cli/internal/api/middleware"
	"github.com/complymap/complymap-cli/internal/application/assessment"
	"github.com/complymap/complymap-cli/internal/domain/assurance"
	"github.com/complymap/complymap-cli/internal/domain/catalog"
	sharedErrors "github.com/complymap/complymap-cli/internal/shared/errors"
)

// EngineService is the surface the HTTP handlers expose. The assessment
// service satisfies it.
type EngineService interface {
	ListFrameworks(ctx context.Context) ([]catalog.Framework, error)
	BuildControlTree(ctx context.Context, frameworkID string) ([]*analysis.ControlNode, error)
	ComputeFrameworkCoverage(ctx context.Context, organizationID string, frameworkIDs []string) (*assessment.CoverageResult, error)
	ListGaps(ctx context.Context, organizationID string, q assessment.GapQuery) (*assessment.GapPage, error)
	ComparePairwise(ctx context.Context, organizationID, sourceFrameworkID, targetFrameworkID string) (*assessment.PairwiseResult, error)
	CompareMulti(ctx context.Context, organizationID string, frameworkIDs []string) (*assessment.MultiResult, error)
	ProjectGraph(ctx context.Context, organizationID, frameworkID string, maxChains int) (*analysis.Graph, error)
	InvalidateFramework(frameworkID string)
}

// HealthService reports process health and readiness.
type HealthService interface {
	Check(ctx context.Context) error
	Ready(ctx context.Context) error
}

type Config struct {
	Engine      EngineService
	Health      HealthService
	AuthToken   string
	Logger      *zap.Logger
	CORSOrigins []string // Allowed CORS origins (empty = allow all)
	RateLimit   int      // Requests per second per IP (0 = disabled)
	RateBurst   int      // Burst size for rate limiter
}

type Server struct {
	cfg      Config
	mux      *http.ServeMux
	limiters *rateLimiterMap
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		limiters: newRateLimiterMap(),
	}
	srv.routes()
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Apply middleware chain: RequestID -> Logging -> RateLimit -> CORS -> Handler
	handler := middleware.RequestID(s.withLogging(s.withRateLimit(s.withCORS(s.mux))))
	handler.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.Handle("/api/v1/health", s.withAuth(http.HandlerFunc(s.handleHealth)))
	s.mux.Handle("/api/v1/ready", s.withAuth(http.HandlerFunc(s.handleReady)))
	s.mux.Handle("/api/v1/frameworks", s.withAuth(http.HandlerFunc(s.handleFrameworks)))
	s.mux.Handle("/api/v1/frameworks/", s.withAuth(http.HandlerFunc(s.handleFrameworkSubresource)))
	s.mux.Handle("/api/v1/coverage", s.withAuth(http.HandlerFunc(s.handleCoverage)))
	s.mux.Handle("/api/v1/gaps", s.withAuth(http.HandlerFunc(s.handleGaps)))
	s.mux.Handle("/api/v1/compare", s.withAuth(http.HandlerFunc(s.handleCompare)))
	s.mux.Handle("/api/v1/matrix", s.withAuth(http.HandlerFunc(s.handleMatrix)))
	s.mux.Handle("/api/v1/graph", s.withAuth(http.HandlerFunc(s.handleGraph)))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Health != nil {
		if err := s.cfg.Health.Check(r.Context()); err != nil {
			s.writeError(w, r, http.StatusInternalServerError, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	if s.cfg.Health != nil {
		if err := s.cfg.Health.Ready(r.Context()); err != nil {
			s.writeError(w, r, http.StatusServiceUnavailable, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleFrameworks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	frameworks, err := s.cfg.Engine.ListFrameworks(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, frameworks)
}

// handleFrameworkSubresource serves /api/v1/frameworks/{id}/tree and
// /api/v1/frameworks/{id}/invalidate.
func (s *Server) handleFrameworkSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/frameworks/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		s.writeError(w, r, http.StatusNotFound, errors.New("not found"))
		return
	}
	switch parts[1] {
	case "tree":
		if r.Method != http.MethodGet {
			s.methodNotAllowed(w, r)
			return
		}
		forest, err := s.cfg.Engine.BuildControlTree(r.Context(), parts[0])
		if err != nil {
			s.writeEngineError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"framework_id": parts[0], "tree": forest})
	case "invalidate":
		if r.Method != http.MethodPost {
			s.methodNotAllowed(w, r)
			return
		}
		s.cfg.Engine.InvalidateFramework(parts[0])
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeError(w, r, http.StatusNotFound, errors.New("not found"))
	}
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	org, ok := s.requireOrganization(w, r)
	if !ok {
		return
	}
	frameworks := splitList(r.URL.Query().Get("frameworks"))
	if len(frameworks) == 0 {
		s.writeError(w, r, http.StatusBadRequest, errors.New("frameworks parameter required"))
		return
	}
	result, err := s.cfg.Engine.ComputeFrameworkCoverage(r.Context(), org, frameworks)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	org, ok := s.requireOrganization(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	query := assessment.GapQuery{
		FrameworkID: q.Get("framework"),
		ControlID:   q.Get("control"),
		Status:      assurance.ComplianceStatus(q.Get("status")),
		Search:      q.Get("search"),
		Page:        intParam(q.Get("page"), 1),
		PageSize:    intParam(q.Get("page_size"), 50),
		SortField:   q.Get("sort"),
		SortDesc:    q.Get("dir") == "desc",
	}
	page, err := s.cfg.Engine.ListGaps(r.Context(), org, query)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	org, ok := s.requireOrganization(w, r)
	if !ok {
		return
	}
	source := r.URL.Query().Get("source")
	target := r.URL.Query().Get("target")
	if source == "" || target == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("source and target parameters required"))
		return
	}
	result, err := s.cfg.Engine.ComparePairwise(r.Context(), org, source, target)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMatrix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	org, ok := s.requireOrganization(w, r)
	if !ok {
		return
	}
	frameworks := splitList(r.URL.Query().Get("frameworks"))
	result, err := s.cfg.Engine.CompareMulti(r.Context(), org, frameworks)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r)
		return
	}
	org, ok := s.requireOrganization(w, r)
	if !ok {
		return
	}
	framework := r.URL.Query().Get("framework")
	if framework == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("framework parameter required"))
		return
	}
	maxChains := intParam(r.URL.Query().Get("max_chains"), 0)
	graph, err := s.cfg.Engine.ProjectGraph(r.Context(), org, framework, maxChains)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, graph)
}

func (s *Server) requireOrganization(w http.ResponseWriter, r *http.Request) (string, bool) {
	org := r.URL.Query().Get("organization")
	if org == "" {
		s.writeError(w, r, http.StatusBadRequest, errors.New("organization parameter required"))
		return "", false
	}
	return org, true
}

// writeEngineError maps engine error kinds to HTTP statuses: validation
// errors are the caller's fault, upstream failures are a bad gateway so
// clients can tell "no data" from "engine says zero".
func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, sharedErrors.ErrValidation):
		s.writeError(w, r, http.StatusBadRequest, err)
	case errors.Is(err, sharedErrors.ErrUpstreamUnavailable):
		s.writeError(w, r, http.StatusBadGateway, err)
	default:
		s.writeError(w, r, http.StatusInternalServerError, err)
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// intParam parses a non-negative query parameter, keeping an explicit 0
// valid (page_size=0 requests the full list).
func intParam(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
		return parsed
	}
	return fallback
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip rate limiting if disabled
		if s.cfg.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		// Extract client IP (handle X-Forwarded-For for proxied requests)
		clientIP := r.RemoteAddr
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			// Use first IP in X-Forwarded-For chain
			if idx := strings.Index(forwarded, ","); idx > 0 {
				clientIP = strings.TrimSpace(forwarded[:idx])
			} else {
				clientIP = strings.TrimSpace(forwarded)
			}
		}
		// Remove port if present
		if idx := strings.LastIndex(clientIP, ":"); idx > 0 {
			clientIP = clientIP[:idx]
		}

		limiter := s.limiters.getLimiter(clientIP, s.cfg.RateLimit, s.cfg.RateBurst)
		if !limiter.Allow() {
			if s.cfg.Logger != nil {
				logger := s.requestLogger(r)
				logger.Warn("rate_limit_exceeded",
					zap.String("client_ip", clientIP),
				)
			}
			s.writeError(w, r, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowOrigin := "*"
		if len(s.cfg.CORSOrigins) > 0 {
			allowed := false
			for _, allowedOrigin := range s.cfg.CORSOrigins {
				if allowedOrigin == origin {
					allowed = true
					allowOrigin = origin
					break
				}
			}
			if !allowed {
				allowOrigin = ""
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Auth-Token")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		if s.cfg.Logger != nil {
			requestID := middleware.GetRequestID(r.Context())
			s.cfg.Logger.Info("http_request",
				zap.String("request_id", requestID),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", lrw.statusCode),
				zap.Duration("duration", duration),
				zap.Int64("bytes", lrw.bytesWritten),
			)
		}
	})
}

func (s *Server) withAuth(next http.Handler) http.Handler {
	if s.cfg.AuthToken == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get("X-Auth-Token")
		// Use constant-time comparison to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.AuthToken)) != 1 {
			s.writeError(w, r, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code and bytes written
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	// Sanitize error messages to prevent information disclosure
	msg := err.Error()

	// For 5xx errors, return generic message and log details server-side
	if status >= 500 {
		if s.cfg.Logger != nil {
			logger := s.requestLogger(r)
			logger.Error("internal_server_error",
				zap.Error(err),
				zap.Int("status", status),
			)
		}
		msg = "internal server error"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if s.cfg.Logger == nil {
		return zap.NewNop()
	}

	requestID := middleware.GetRequestID(r.Context())
	return s.cfg.Logger.With(
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, r, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

// rateLimiterMap manages per-IP rate limiters with automatic cleanup
type rateLimiterMap struct {
	mu       sync.RWMutex
	limiters map[string]*ipLimiter
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiterMap() *rateLimiterMap {
	m := &rateLimiterMap{
		limiters: make(map[string]*ipLimiter),
	}
	// Start cleanup goroutine to remove stale limiters
	go m.cleanupLoop()
	return m
}

func (m *rateLimiterMap) getLimiter(ip string, rps, burst int) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.limiters[ip]
	if !exists {
		limiter = &ipLimiter{
			limiter:  rate.NewLimiter(rate.Limit(rps), burst),
			lastSeen: time.Now(),
		}
		m.limiters[ip] = limiter
	} else {
		limiter.lastSeen = time.Now()
	}

	return limiter.limiter
}

// cleanupLoop removes limiters that haven't been used in 5 minutes
func (m *rateLimiterMap) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		for ip, limiter := range m.limiters {
			if time.Since(limiter.lastSeen) > 5*time.Minute {
				delete(m.limiters, ip)
			}
		}
		m.mu.Unlock()
	}
}
