package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/poseflow/internal/practice"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options tunes the HTTP surface. The zero value allows any origin and
// disables rate limiting, as does a negative RateRequests.
type Options struct {
	AllowedOrigins []string
	RateRequests   int
	RateWindow     time.Duration
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc    *practice.Service
	log    *slog.Logger
	apiKey string
	router chi.Router
	whois  WhoIsClient
}

// New creates a new Server with all routes configured.
func New(svc *practice.Service, apiKey string, opts Options, log *slog.Logger) *Server {
	s := &Server{
		svc:    svc,
		log:    log,
		apiKey: apiKey,
		router: chi.NewRouter(),
	}
	s.routes(opts)
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// SetTailscale switches user identity from the dev user to tailnet WhoIs.
// Call before serving.
func (s *Server) SetTailscale(lc WhoIsClient) {
	s.whois = lc
}

// SetMCP mounts an MCP transport at /mcp behind the identity middleware.
func (s *Server) SetMCP(h http.Handler) {
	s.router.With(s.identify, s.ensureUser).Handle("/mcp", h)
}

func (s *Server) routes(opts Options) {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS(opts.AllowedOrigins))
	s.router.Use(RateLimit(opts.RateRequests, opts.RateWindow))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// Batch upload (API key required, user named in the body)
	s.router.Route("/api/v1/ingest", func(r chi.Router) {
		r.Use(APIKeyAuth(s.apiKey))
		r.Post("/sessions", s.handleIngestSessions)
	})

	// User endpoints (no auth, tsnet handles access)
	s.router.Group(func(r chi.Router) {
		r.Use(s.identify, s.ensureUser)

		r.Get("/api/v1/me", s.handleMe)
		r.Get("/api/v1/user/profile", s.handleGetProfile)
		r.Post("/api/v1/user/profile", s.handleUpdateProfile)
		r.Get("/api/v1/user/streak", s.handleGetStreak)
		r.Post("/api/v1/user/streak/update", s.handleMarkPracticed)
		r.Post("/api/v1/practice/log", s.handleLogSession)
		r.Get("/api/v1/practice/sessions", s.handleSessions)
		r.Get("/api/v1/practice/recommendations", s.handleRecommendations)
		r.Get("/api/v1/poses", s.handlePoses)
	})
}

// identify picks Tailscale or dev identity at request time, so SetTailscale
// may be called after routes are built.
func (s *Server) identify(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois != nil {
			TailscaleIdentity(s.whois, s.log)(next).ServeHTTP(w, r)
			return
		}
		dev.ServeHTTP(w, r)
	})
}

// ensureUser creates the user row on first sight.
func (s *Server) ensureUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := userInfoFromContext(r)
		if _, err := s.svc.EnsureUser(r.Context(), info.Login, info.DisplayName); err != nil {
			s.log.Error("ensure user", "login", info.Login, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "user lookup failed"})
			return
		}
		next.ServeHTTP(w, r)
	})
}
