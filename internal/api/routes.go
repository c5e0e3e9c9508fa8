package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)

		// Protected routes (auth required)
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.verifier))

			// Model-backed routes are rate limited to bound provider spend
			limited := r.With()
			if h.limiter != nil {
				limited = r.With(h.limiter.Middleware)
			}

			limited.Post("/roadmap/create", h.CreateRoadmap)
			limited.Post("/roadmap/chatbot/{id}", h.Chatbot)
			r.Get("/roadmap/user", h.ListRoadmaps)
			r.Get("/roadmap/{roadmapId}", h.GetRoadmap)
			r.Patch("/roadmap/{roadmapId}/task/{taskId}", h.UpdateTask)
		})
	})

	return r
}
