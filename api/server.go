/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, carried into log lines
  2. Logger:     One logrus line per request (method, path, status, duration)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/workers, /api/groups,
  /api/activities, /api/areas   Master data
  /api/months/{month}/*         Rosters, group sheets, marks, cap checks
  /api/expenses, /api/payments  Money in and out
  /api/reports/*                Cost roll-ups and period summary
  /api/balances/*               Running group balances
  /api/scenarios/*              Demo scenarios
  /api/export, /api/import      YAML snapshot documents
  /                             JSON index of the API

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// apiIndex is served at / so a browser pointed at the server finds the API.
var apiIndex = map[string]any{
	"name": "farm-attendance-ledger",
	"endpoints": []string{
		"/api/workers",
		"/api/groups",
		"/api/activities",
		"/api/areas",
		"/api/months/{month}/roster",
		"/api/months/{month}/instances",
		"/api/months/{month}/cap-violations",
		"/api/expenses",
		"/api/payments",
		"/api/reports/summary",
		"/api/balances?month=YYYY-MM",
		"/api/scenarios",
		"/api/export",
	},
}

// NewRouter creates a new router with all routes configured. An empty
// origin list allows the local dev servers.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = defaultOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.SaveWorker)
			r.Delete("/{id}", h.DeleteWorker)
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", h.ListGroups)
			r.Post("/", h.SaveGroup)
			r.Delete("/{id}", h.DeleteGroup)
		})

		r.Route("/activities", func(r chi.Router) {
			r.Get("/", h.ListActivities)
			r.Post("/", h.SaveActivity)
			r.Delete("/{code}", h.DeleteActivity)
		})

		r.Route("/areas", func(r chi.Router) {
			r.Get("/", h.ListAreas)
			r.Post("/", h.SaveArea)
			r.Delete("/{code}", h.DeleteArea)
		})

		// Attendance routes
		r.Route("/months/{month}", func(r chi.Router) {
			r.Get("/roster", h.GetRoster)
			r.Put("/roster", h.SaveRoster)
			r.Get("/instances", h.ListInstances)
			r.Get("/cap-violations", h.ListCapViolations)

			r.Route("/groups/{groupID}", func(r chi.Router) {
				r.Get("/", h.GetInstance)
				r.Post("/", h.ActivateInstance)
				r.Post("/marks/cycle", h.CycleMark)
				r.Put("/marks", h.SetMark)
				r.Put("/days/{date}/tags", h.SetDayTags)
			})
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.SaveExpense)
			r.Delete("/{id}", h.DeleteExpense)
			r.Get("/{id}/allocation", h.GetExpenseAllocation)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.SavePayment)
			r.Delete("/{id}", h.DeletePayment)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/workers", h.WorkerReport)
			r.Get("/groups", h.GroupReport)
			r.Get("/groups/{groupID}/breakdown", h.GroupBreakdown)
			r.Get("/activities", h.ActivityReport)
			r.Get("/areas", h.AreaReport)
			r.Get("/summary", h.SummaryReport)
		})

		r.Route("/balances", func(r chi.Router) {
			r.Get("/", h.ListBalances)
			r.Get("/{groupID}", h.GetGroupBalances)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})

		r.Get("/export", h.Export)
		r.Post("/import", h.Import)
	})

	// API index; any other path is a 404.
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, apiIndex)
	})

	return r
}

// requestLogger logs one line per request through logrus.
func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				entry := log.WithFields(logrus.Fields{
					"request_id": middleware.GetReqID(r.Context()),
					"method":     r.Method,
					"path":       r.URL.Path,
					"status":     ww.Status(),
					"bytes":      ww.BytesWritten(),
					"duration":   time.Since(start).String(),
				})
				if ww.Status() >= http.StatusInternalServerError {
					entry.Warn("request failed")
					return
				}
				entry.Info("request")
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
