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
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the reporting frontend

ROUTE GROUPS:
  /api/leases/*     Lease register
  /api/calculate    Single-lease run
  /api/bulk         Portfolio run (JSON or .xlsx)
  /api/rates/*      Risk-free rate curves
  /api/reset        Database reset (dev only)

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

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
		// Lease register
		r.Route("/leases", func(r chi.Router) {
			r.Get("/", h.ListLeases)
			r.Post("/", h.SaveLease)
			r.Get("/{id}", h.GetLease)
			r.Delete("/{id}", h.DeleteLease)
			r.Get("/{id}/schedule", h.GetSchedule)
		})

		// Calculation
		r.Post("/calculate", h.Calculate)
		r.Route("/bulk", func(r chi.Router) {
			r.Post("/", h.Bulk)
			r.Post("/export", h.BulkExport)
		})

		// Rate curves
		r.Route("/rates", func(r chi.Router) {
			r.Get("/", h.ListRates)
			r.Post("/", h.SaveRates)
			r.Post("/upload", h.UploadRates)
		})

		// Dev convenience
		r.Post("/reset", h.ResetDatabase)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Lease Accounting Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Lease Accounting Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/leases">/api/leases</a> - Lease register</li>
<li><a href="/api/rates">/api/rates</a> - Risk-free rate curves</li>
<li>POST /api/calculate - Single-lease run</li>
<li>POST /api/bulk - Portfolio run</li>
<li>POST /api/bulk/export - Portfolio run as .xlsx</li>
</ul>
</body>
</html>`))
	})

	return r
}

// ResetDatabase clears all data (dev only).
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
