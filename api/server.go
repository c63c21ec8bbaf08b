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
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client IP behind proxies
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/assets/*            Asset registry and per-asset depreciation
  /api/depreciation/run    System-wide catch-up
  /healthz                 Liveness probe

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
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Asset routes
		r.Route("/assets", func(r chi.Router) {
			r.Get("/", h.ListAssets)
			r.Post("/", h.CreateAsset)
			r.Get("/{id}", h.GetAsset)
			r.Patch("/{id}", h.UpdateAsset)
			r.Post("/{id}/dispose", h.DisposeAsset)

			// Per-asset depreciation routes
			r.Route("/{id}/depreciation", func(r chi.Router) {
				r.Get("/summary", h.GetSummary)
				r.Get("/status", h.GetStatus)
				r.Get("/preview", h.GetPreview)
				r.Get("/schedule", h.GetSchedule)
				r.Get("/entries", h.ListEntries)
				r.Post("/generate", h.Generate)
				r.Post("/catch-up", h.CatchUp)
				r.Post("/generate-n", h.GenerateN)
				r.Post("/until-zero", h.UntilZero)
				r.Post("/until-value", h.UntilValue)
				r.Post("/reset", h.ResetLedger)
			})
		})

		// System routes
		r.Route("/depreciation", func(r chi.Router) {
			r.Post("/run", h.RunAll)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
