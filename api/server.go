/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:      Request logging
  2. Recoverer:   Panic recovery (500 instead of crash)
  3. RequestID:   Unique ID per request for tracing
  4. CORS:        Cross-origin requests for frontend
  5. RequireAuth: Session resolution (per route group, see auth.go)

ROUTE GROUPS:
  /api/auth/*           Sign-in, sign-out, session
  /api/pilots/*         Pilot management and ledger capture
  /api/history          Closing history
  /api/admin/*          Admin operations (closing sweep)
  /files/*              Generated statement PDFs

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
// documentsDir, when non-empty, is served under /files/ so statement
// URLs resolve without a separate file server.
func NewRouter(h *Handler, documentsDir string) *chi.Mux {
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

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth routes (login is the only unauthenticated endpoint)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.With(h.RequireAuth).Get("/session", h.GetSession)
		})

		// Pilot routes
		r.Route("/pilots", func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Get("/", h.ListPilots)
			r.Get("/{id}", h.GetPilot)
			r.Get("/{id}/history", h.ListPilotHistory)

			// Mutations are admin-only
			r.Group(func(r chi.Router) {
				r.Use(h.RequireAdmin)
				r.Post("/", h.CreatePilot)
				r.Put("/{id}", h.UpdatePilot)
				r.Delete("/{id}", h.DeletePilot)
				r.Post("/{id}/expenses", h.AddExpense)
				r.Post("/{id}/reimbursements", h.AddReimbursement)
			})
		})

		// History routes
		r.With(h.RequireAuth).Get("/history", h.ListHistory)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(h.RequireAuth, h.RequireAdmin)
			r.Post("/closings/run", h.RunClosings)
		})
	})

	// Serve generated statement documents
	if documentsDir != "" {
		fileServer := http.StripPrefix("/files/", http.FileServer(http.Dir(documentsDir)))
		r.Get("/files/*", fileServer.ServeHTTP)
	}

	return r
}
