/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the chi router, middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:      Request logging
  2. Recoverer:   Panic recovery (500 instead of crash)
  3. RequestID:   Unique ID per request for tracing
  4. CORS:        Cross-origin requests for the frontend
  5. RequireAuth: Bearer-token to Actor resolution (authed groups)

ROUTE GROUPS:
  /api/login, /api/scenarios   Public (scenario loading is dev-only)
  /api/users/*                 Admin-gated directory management
  /api/requests/*, /api/reports/*, /api/me, /api/profile
                               Authenticated

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Token middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/login", h.Login)
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Get("/me", h.Me)
			r.Put("/profile", h.UpdateProfile)
			r.Get("/categories", h.ListCategories)

			r.Route("/requests", func(r chi.Router) {
				r.Post("/", h.SubmitRequest)
				r.Get("/", h.ListRequests)
				r.Get("/mine", h.ListMyRequests)
				r.Get("/pending", h.ListPendingRequests)
				r.Post("/{id}/approve", h.ApproveRequest)
				r.Post("/{id}/reject", h.RejectRequest)
				r.Put("/{id}", h.UpdateRequest)
				r.Delete("/{id}", h.DeleteRequest)
				r.Get("/{id}/audit", h.GetAuditTrail)
			})

			r.Route("/reports", func(r chi.Router) {
				r.Get("/", h.GenerateReport)
				r.Get("/statistics", h.GenerateStatistics)
			})

			// Directory management is admin-only, except the list used
			// to populate approver pickers.
			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Group(func(r chi.Router) {
					r.Use(RequireAdmin)
					r.Post("/", h.CreateUser)
					r.Get("/{nik}", h.GetUser)
					r.Put("/{nik}/role", h.UpdateUserRole)
					r.Delete("/{nik}", h.DeleteUser)
				})
			})
		})
	})

	return r
}
