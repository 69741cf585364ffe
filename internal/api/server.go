// Package api provides the HTTP API server and handlers for the ClassDesk planner.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/classdeskapp/classdesk-server/internal/ratelimit"
	"github.com/classdeskapp/classdesk-server/internal/sse"
	"github.com/classdeskapp/classdesk-server/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Options configures the transport around the handlers.
type Options struct {
	AllowedOrigins []string
	RateLimitRPS   float64 // Zero disables rate limiting
	RateLimitBurst int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      store.Store
	services   *Services
	router     *chi.Mux
	api        huma.API
	sseManager *sse.Manager
	limiter    *ratelimit.KeyedRateLimiter
	logger     *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
// sseManager may be nil, in which case no event stream is served.
func NewServer(st store.Store, services *Services, sseManager *sse.Manager, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		store:      st,
		services:   services,
		router:     chi.NewRouter(),
		sseManager: sseManager,
		logger:     logger,
	}

	s.setupMiddleware(opts)

	humaConfig := huma.DefaultConfig("ClassDesk API", Version)
	humaConfig.Info.Description = "Lesson plan generation for classes and private learners"
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler(logger)

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, used by tests and the OpenAPI dump.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	if opts.RateLimitRPS > 0 {
		s.limiter = ratelimit.New(opts.RateLimitRPS, max(opts.RateLimitBurst, 1))
		s.router.Use(s.limiter.Middleware(s.logger))
	}
}

// setupRoutes registers every huma operation plus the raw SSE endpoint.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerOwnerRoutes()
	s.registerAllocationRoutes()
	s.registerCalendarRoutes()
	s.registerPlanRoutes()
	s.registerLessonRoutes()

	if s.sseManager != nil {
		s.router.Get("/api/v1/events", sse.NewHandler(s.sseManager, s.logger).ServeHTTP)
	}
}
