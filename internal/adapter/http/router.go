package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ahemkaric/cashflow-monitoring/internal/adapter/http/handler"
	"github.com/ahemkaric/cashflow-monitoring/internal/adapter/http/middleware"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	CompanyHandler  *handler.CompanyHandler
	CashflowHandler *handler.CashflowHandler
	HealthHandler   *handler.HealthHandler
	Logger          zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.NewRecoveryMiddleware(cfg.Logger).Wrap)

	// Operational endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/companies", func(r chi.Router) {
			r.Get("/", cfg.CompanyHandler.List)
			r.Get("/{id}/balance", cfg.CashflowHandler.Balance)
			r.Get("/{id}/country-details", cfg.CashflowHandler.CountryDetails)
			r.Get("/{id}/transactions", cfg.CashflowHandler.Transactions)
			r.Post("/update", cfg.CashflowHandler.UpdateCompanies)
			r.Post("/update/transactions", cfg.CashflowHandler.ProcessTransactions)
		})
	})

	return r
}
