/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (httplog, ECS schema)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for report dashboards
  5. Heartbeat:  GET /health for load balancers

ROUTE GROUPS:
  /api/workers/*        Worker data and attribute history
  /api/daily-summaries  Upstream daily aggregates
  /api/reports/*        Report generation and scheduled runs
  /api/scenarios/*      Demo datasets (dev only)

SECURITY NOTE:
  No authentication middleware. All endpoints are public; deploy behind
  the internal gateway.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	AllowedOrigins []string
	LogLevel       slog.Level
}

// NewRouter creates a new router with all routes configured. Requests are
// logged through logger.
func NewRouter(h *Handler, logger *slog.Logger, opts RouterOptions) *chi.Mux {
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  opts.LogLevel,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		// Worker routes
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
			r.Get("/{id}", h.GetWorker)
			r.Post("/{id}/changes", h.AppendChange)
			r.Get("/{id}/history", h.GetHistory)
			r.Post("/{id}/overrides", h.SaveOverride)
		})

		r.Post("/daily-summaries", h.SaveDailySummaries)

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Post("/", h.GenerateReport)
			r.Post("/trend", h.GenerateTrend)
			r.Get("/runs", h.ListReportRuns)
		})

		// Demo data
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}

// NewLogger builds the JSON slog logger used for request logs, with ECS
// attribute names.
func NewLogger(env string, level slog.Level) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "production")
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "productivity-engine"),
		slog.String("env", env),
	)
}
