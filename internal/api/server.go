// Package api provides the HTTP API server and handlers for readnest.
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

	"github.com/readnest/readnest/internal/http/response"
	"github.com/readnest/readnest/internal/ratelimit"
	"github.com/readnest/readnest/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       *store.Store
	services    *Services
	router      *chi.Mux
	api         huma.API
	logger      *slog.Logger
	scanLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
// corsOrigins lists the browser origins allowed to call the API.
func NewServer(st *store.Store, services *Services, corsOrigins []string, logger *slog.Logger) *Server {
	s := &Server{
		store:       st,
		services:    services,
		router:      chi.NewRouter(),
		logger:      logger,
		scanLimiter: ratelimit.New(scanRequestsPerMinute/time.Minute.Seconds(), scanBurst),
	}

	// chi requires middleware before any route, and humachi registers the
	// docs routes as soon as the API is created.
	s.setupMiddleware(corsOrigins)

	humaConfig := huma.DefaultConfig("ReadNest API", "1.0.0")
	humaConfig.Info.Description = "Household tracker for children's English reading."
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

// API returns the huma API, mainly for tests and spec export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.scanLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware(corsOrigins []string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w, "route not found", s.logger)
	})
}

// setupRoutes registers every huma operation.
func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerLogRoutes()
	s.registerStatsRoutes()
	s.registerNoteRoutes()
	s.registerIntakeRoutes()
	s.registerBackupRoutes()
}
