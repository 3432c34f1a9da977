// Package api provides the HTTP API server and handlers for the Lectern application.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/lecternapp/lectern-server/internal/auth"
	"github.com/lecternapp/lectern-server/internal/http/response"
	"github.com/lecternapp/lectern-server/internal/ratelimit"
	"github.com/lecternapp/lectern-server/internal/service"
)

// Services bundles the business services the handlers depend on.
type Services struct {
	Lesson   *service.LessonService
	Progress *service.ProgressService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services    *Services
	tokens      *auth.TokenService
	progressRL  *ratelimit.KeyedRateLimiter
	environment string
	router      *chi.Mux
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, tokens *auth.TokenService, progressRL *ratelimit.KeyedRateLimiter, environment string, logger *slog.Logger) *Server {
	s := &Server{
		services:    services,
		tokens:      tokens,
		progressRL:  progressRL,
		environment: environment,
		router:      chi.NewRouter(),
		logger:      logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check.
	s.router.Get("/health", s.handleHealthCheck)

	// API v1.
	s.router.Route("/api/v1", func(r chi.Router) {
		// Development-only credential issuing; production host pages mint
		// credentials through the account subsystem.
		if s.environment != "production" {
			r.Post("/auth/token", s.handleIssueDevToken)
		}

		// Lessons (require auth).
		r.Route("/lessons", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Post("/", s.handleCreateLesson)
			r.Get("/", s.handleListLessons)
			r.Get("/{id}", s.handleGetLesson)
			r.Delete("/{id}", s.handleDeleteLesson)

			r.Get("/{id}/progress", s.handleGetProgress)
			r.Post("/{id}/progress", s.handleRecordProgress)
			r.Delete("/{id}/progress", s.handleResetProgress)
		})

		// Progress shelf + stats (require auth).
		r.Route("/progress", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/continue", s.handleContinueWatching)
			r.Get("/stats", s.handleUserStats)
		})
	})
}

// handleHealthCheck returns server health status.
func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	response.Success(w, map[string]string{
		"status": "healthy",
	}, s.logger)
}
