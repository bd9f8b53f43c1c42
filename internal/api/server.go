// Package api provides the HTTP API server and handlers for the kanban server.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/listenupapp/kanban-server/internal/auth"
	"github.com/listenupapp/kanban-server/internal/http/response"
	"github.com/listenupapp/kanban-server/internal/presence"
	"github.com/listenupapp/kanban-server/internal/ratelimit"
	"github.com/listenupapp/kanban-server/internal/realtime"
	"github.com/listenupapp/kanban-server/internal/store"
)

// Options configures a Server.
type Options struct {
	// Version is reported in the OpenAPI document and /health.
	Version string
	// AllowedOrigins lists the browser origins allowed by CORS and the
	// websocket handshake. Empty allows any origin.
	AllowedOrigins []string
	// RateLimiter throttles mutating requests per client IP. Nil disables it.
	RateLimiter *ratelimit.KeyedRateLimiter
	// WriteTimeout bounds writing a response. Streaming routes manage their
	// own deadlines and are exempt. Zero disables it.
	WriteTimeout time.Duration
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	services *Services
	hub      *realtime.Hub
	tracker  *presence.Tracker
	tokens   *auth.TokenService
	router   *chi.Mux
	api      huma.API
	opts     Options
	started  time.Time
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, hub *realtime.Hub, tracker *presence.Tracker, tokens *auth.TokenService, opts Options, logger *slog.Logger) *Server {
	if opts.Version == "" {
		opts.Version = "dev"
	}

	s := &Server{
		store:    st,
		services: services,
		hub:      hub,
		tracker:  tracker,
		tokens:   tokens,
		router:   chi.NewRouter(),
		opts:     opts,
		started:  time.Now(),
		logger:   logger,
	}

	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("Kanban API", opts.Version)
	humaConfig.Info.Description = "Real-time kanban boards: workspaces, ordered lists and cards."
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	if s.opts.WriteTimeout > 0 {
		s.router.Use(s.writeDeadline)
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.allowedOrigins(),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", SessionHeader},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(s.authMiddleware)
	if s.opts.RateLimiter != nil {
		s.router.Use(RateLimitMiddleware(s.opts.RateLimiter, s.logger))
	}

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.MethodNotAllowed(w, s.logger)
	})
}

func (s *Server) allowedOrigins() []string {
	if len(s.opts.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.opts.AllowedOrigins
}

// setupRoutes registers every operation.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerWorkspaceRoutes()
	s.registerMemberRoutes()
	s.registerListRoutes()
	s.registerCardRoutes()
	s.registerActivityRoutes()
	s.registerPresenceRoutes()
	s.registerRealtimeRoutes()
}

// requestLogger logs one line per request at debug level, and at warn for
// server errors.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		level := slog.LevelDebug
		if ww.Status() >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.logger.Log(r.Context(), level, "HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

// writeDeadline applies the write timeout to every non-streaming request.
func (s *Server) writeDeadline(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isStreamingRequest(r) {
			rc := http.NewResponseController(w)
			if err := rc.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout)); err != nil {
				s.logger.Debug("failed to set write deadline", "error", err)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// isStreamingRequest reports whether r targets the SSE or websocket endpoint.
func isStreamingRequest(r *http.Request) bool {
	return r.URL.Path == "/api/v1/ws" || strings.HasSuffix(r.URL.Path, "/events")
}
