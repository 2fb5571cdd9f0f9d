/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for admin frontends

ROUTE GROUPS:
  /api/payrolls/*       Payroll calculation and workflow
  /api/periods/*        Period lifecycle, summaries, batch runs
  /api/employees/*      Employee projection
  /api/benefits/*       Benefit assignments
  /api/concepts         Concept catalog

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
		// Payroll routes
		r.Route("/payrolls", func(r chi.Router) {
			r.Post("/preview", h.PreviewPayroll)
			r.Post("/", h.CreateOrUpdatePayroll)
			r.Get("/{id}", h.GetPayroll)
			r.Post("/{id}/approve", h.ApprovePayroll)
			r.Post("/{id}/reject", h.RejectPayroll)
			r.Post("/{id}/process", h.ProcessPayroll)
			r.Post("/{id}/pay", h.PayPayroll)
			r.Post("/{id}/reopen", h.ReopenPayroll)
		})

		// Period routes
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Post("/", h.CreatePeriod)
			r.Post("/{id}/open", h.OpenPeriod)
			r.Post("/{id}/close", h.ClosePeriod)
			r.Post("/{id}/reopen", h.ReopenPeriod)
			r.Get("/{id}/summary", h.GetPeriodSummary)
			r.Get("/{id}/payrolls", h.ListPeriodPayrolls)
			r.Post("/{id}/run", h.RunPeriod)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}/benefits", h.ListEmployeeBenefits)
		})

		// Benefit routes
		r.Route("/benefits", func(r chi.Router) {
			r.Post("/", h.CreateBenefit)
		})

		// Concept catalog
		r.Get("/concepts", h.ListConcepts)
	})

	return r
}
