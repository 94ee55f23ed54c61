// Package api exposes the services over a JSON HTTP API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/centsai/internal/apperror"
	"github.com/mmynk/centsai/internal/metrics"
	"github.com/mmynk/centsai/internal/middleware"
)

// RouterConfig holds the dependencies of the router.
type RouterConfig struct {
	Handlers       *Handlers
	Tokens         middleware.TokenValidator
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	Logger         *slog.Logger
	AllowedOrigins []string
}

// NewRouter wires middleware and routes.
func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handlers
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	// Identity is resolved before logging so the access log carries the user.
	r.Use(middleware.OptionalAuth(cfg.Tokens, cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger, cfg.Metrics))
	r.Use(chimw.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, cfg.Logger, apperror.NewNotFound("route not found", nil))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, apperror.Response{
			Status:  http.StatusMethodNotAllowed,
			Error:   "method_not_allowed",
			Message: "method not allowed",
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/register", h.HandleRegister())
			r.Post("/login", h.HandleLogin())
			r.Get("/me", h.HandleMe())

			r.Post("/ai/{userId}/transaction", h.HandleSaveExtracted())

			r.Route("/{userId}", func(r chi.Router) {
				r.Post("/transaction", h.HandleAddTransaction())
				r.Get("/transactions", h.HandleListTransactions())
				r.Patch("/transaction/{transactionId}", h.HandleUpdateTransaction())
				r.Delete("/transaction/{transactionId}", h.HandleDeleteTransaction())
			})
		})

		r.Post("/ai/extract", h.HandleExtract())
	})

	return r
}
