/**
 * @description
 * HTTP router setup for the reconciliation service using go-chi/chi.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates a new Chi router and registers the service's routes.
func NewRouter(h *Handlers, jwtSecret string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Reconciliation service is healthy"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(InternalAuthMiddleware(jwtSecret))
		r.Post("/group-payments", h.CreateGroupPaymentHandler)
		r.Post("/group-payments/{id}/send", h.SendGroupPaymentHandler)
		r.Get("/paychecks/{id}", h.GetPaycheckHandler)
	})

	return r
}
