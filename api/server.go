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
  4. Metrics:    Prometheus request counts and latency
  5. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/{kind}/*        Catalog, preview, and composite submission
  /api/complaints/*    Complaint lifecycle
  /api/clearances/*    Clearance lifecycle and receipts
  /api/summons/*       Summon lifecycle
  /api/receipts        Issued receipts
  /metrics             Prometheus scrape endpoint

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Get("/flows", h.ListFlows)

		// Complaint routes
		r.Route("/complaints", func(r chi.Router) {
			r.Get("/", h.ListComplaints)
			r.Get("/{id}", h.GetComplaint)
			r.Patch("/{id}/status", h.TransitionComplaint)
		})

		// Clearance routes (status transitions plus payment)
		r.Route("/clearances", func(r chi.Router) {
			r.Get("/", h.ListClearances)
			r.Get("/{id}", h.GetClearance)
			r.Patch("/{id}/status", h.TransitionClearance)
			r.Post("/{id}/receipts", h.IssueReceipt)
		})

		// Summon routes
		r.Route("/summons", func(r chi.Router) {
			r.Get("/", h.ListSummons)
			r.Get("/{id}", h.GetSummon)
			r.Patch("/{id}/status", h.TransitionSummon)
		})

		// Receipt routes
		r.Get("/receipts", h.ListReceipts)

		// Subject history
		r.Get("/subjects/{id}/records", h.GetSubjectRecords)

		// Dispensing routes, parameterized by item kind. Registered last
		// so the literal routes above win over the {kind} wildcard.
		r.Route("/{kind}", func(r chi.Router) {
			r.Get("/catalog", h.GetCatalog)
			r.Post("/preview", h.PreviewRequest)
			r.Post("/requests", h.SubmitRequest)
		})
	})

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
