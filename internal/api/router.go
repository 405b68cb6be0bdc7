package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Assay/internal/pipeline"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

func NewRouter(s store.Store, runner pipeline.Trigger, adminToken string, corsOrigins []string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	runs := NewRunsHandler(s, runner)
	explain := NewExplainHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/runs", runs.List)
		r.Get("/runs/{id}", runs.Get)
		r.Get("/runs/{id}/experiments", runs.Experiments)
		r.Get("/runs/{id}/experiments/{exp_id}/explain", explain.Explain)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Post("/runs", runs.Create)
		})
	})

	return r
}

// NewMetricsRouter serves health and the given registry's metrics.
func NewMetricsRouter(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}
