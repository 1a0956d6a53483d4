package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/crestline-ai/reglens/internal/api"
	"github.com/crestline-ai/reglens/internal/api/handlers"
	"github.com/crestline-ai/reglens/internal/api/middleware"
	"github.com/crestline-ai/reglens/internal/metrics"
)

type RouterConfig struct {
	IngestHandler   *handlers.IngestHandler
	QueryHandler    *handlers.QueryHandler
	EvaluateHandler *handlers.EvaluateHandler
	Metrics         *metrics.Metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 25 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ingest", cfg.IngestHandler.Ingest)
		r.Post("/query", cfg.QueryHandler.Query)
		r.Post("/evaluate", cfg.EvaluateHandler.Evaluate)
	})

	return r
}
