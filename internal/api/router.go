package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Arbiter/internal/broker"
	"github.com/MikeSquared-Agency/Arbiter/internal/hermes"
	"github.com/MikeSquared-Agency/Arbiter/internal/store"
)

func NewRouter(s store.Store, h hermes.Client, b *broker.Broker, adminToken string, corsOrigins []string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(CORSMiddleware(corsOrigins))
	r.Use(RateLimitMiddleware(120))

	decisions := NewDecisionsHandler(s, h)
	analyses := NewAnalysesHandler(s, b)
	explain := NewExplainHandler(s)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyze", analyses.AnalyzeInline)

		r.Post("/decisions", decisions.Create)
		r.Get("/decisions", decisions.List)
		r.Get("/decisions/{id}", decisions.Get)
		r.Put("/decisions/{id}", decisions.Update)

		r.Post("/decisions/{id}/analyze", analyses.Analyze)
		r.Post("/decisions/{id}/compare", analyses.Compare)
		r.Post("/decisions/{id}/rerank", analyses.Rerank)
		r.Get("/decisions/{id}/analyses", analyses.List)
		r.Get("/decisions/{id}/explain", explain.Explain)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Delete("/decisions/{id}", decisions.Delete)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	return r
}
