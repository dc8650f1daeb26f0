// Package api provides the HTTP control API for the earcon daemon.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/earconlabs/earcon/internal/sse"
	"github.com/earconlabs/earcon/internal/validation"
)

// Server holds dependencies for the control API handlers.
type Server struct {
	services    *Services
	sseManager  *sse.Manager
	sseHandler  *sse.Handler
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
	validator   *validation.Validator
	rateLimiter *RateLimiter
	version     string
}

// NewServer creates the control API with middleware and all routes configured.
func NewServer(services *Services, sseManager *sse.Manager, version string, logger *slog.Logger) *Server {
	router := chi.NewRouter()
	limiter := NewRateLimiter(600, time.Minute, 120)

	// chi requires the full middleware chain before any route is mounted,
	// and humachi registers the OpenAPI routes at construction time.
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(RateLimitMiddleware(limiter, logger))

	humaConfig := huma.DefaultConfig("Earcon API", version)
	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		services:    services,
		sseManager:  sseManager,
		sseHandler:  sse.NewHandler(sseManager, logger),
		router:      router,
		api:         api,
		logger:      logger,
		validator:   validation.New(),
		rateLimiter: limiter,
		version:     version,
	}

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// registerRoutes registers every operation on the huma API. The SSE stream
// rides on the raw router because huma buffers response bodies.
func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerPreferenceRoutes()
	s.registerPlayRoutes()
	s.registerSoundRoutes()
	s.registerCatalogRoutes()
	s.registerHistoryRoutes()

	s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
}

// Close stops the rate limiter's bookkeeping goroutine.
func (s *Server) Close() {
	s.rateLimiter.Stop()
}
