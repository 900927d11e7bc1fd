// Package httpapi wires the HTTP surface of the bookkeeping service.
// It keeps handlers thin, delegating business rules to the service layer.
package httpapi

import (
	"log/slog"
	"net/http"

	chi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/okalkan/defter/internal/service/ledger"
	"github.com/okalkan/defter/internal/service/registry"
)

// Server wires handlers and middleware using Chi.
type Server struct {
	ledgerSvc   ledger.Service
	registrySvc registry.Service
	store       Store
	log         *slog.Logger
	rt          *chi.Mux
}

// Syncer is forwarded to both services; it may be nil when remote mirroring
// is disabled.
type Syncer interface {
	Create(collection string, record any)
	Update(collection string, record any)
	Delete(collection string, id int64)
}

// New constructs the HTTP server with routes and middleware.
// The logger is used by basic request/response logging and panic recovery.
func New(store Store, sync Syncer, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLogger(logger))
	r.Use(recoverer(logger))
	r.Use(metricsMiddleware)
	if auth := authTokenFromEnv(); auth != nil {
		r.Use(auth)
	}

	s := &Server{
		ledgerSvc:   ledger.New(store, store, sync, logger),
		registrySvc: registry.New(store, store, sync, logger),
		store:       store,
		log:         logger,
		rt:          r,
	}
	s.routes()
	return s
}

// Handler exposes the configured http.Handler.
func (s *Server) Handler() http.Handler { return s.rt }

// routes declares the public HTTP API endpoints and attaches any per-route middleware.
func (s *Server) routes() {
	// Ledger (v1)
	s.rt.With(s.validateCreateInvoice()).Post("/v1/invoices", s.postInvoice)
	s.rt.With(s.validateCashMovement()).Post("/v1/cash-movements", s.postCashMovement)
	s.rt.Get("/v1/transactions", s.listTransactions)
	s.rt.Get("/v1/transactions/{id}", s.getTransaction)
	s.rt.With(s.validateEditTransaction()).Put("/v1/transactions/{id}", s.putTransaction)
	s.rt.Delete("/v1/transactions/{id}", s.deleteTransaction)
	// Customers (v1)
	s.rt.With(s.validateCustomer()).Post("/v1/customers", s.postCustomer)
	s.rt.Get("/v1/customers", s.listCustomers)
	s.rt.Get("/v1/customers/{id}", s.getCustomer)
	s.rt.Get("/v1/customers/{id}/balances", s.getCustomerBalances)
	s.rt.With(s.validateCustomer()).Patch("/v1/customers/{id}", s.patchCustomer)
	s.rt.Delete("/v1/customers/{id}", s.deleteCustomer)
	// Safes (v1)
	s.rt.With(s.validateSafe()).Post("/v1/safes", s.postSafe)
	s.rt.Get("/v1/safes", s.listSafes)
	s.rt.Get("/v1/safes/{id}", s.getSafe)
	s.rt.Get("/v1/safes/{id}/balances", s.getSafeBalances)
	s.rt.Delete("/v1/safes/{id}", s.deleteSafe)
	// Products (v1)
	s.rt.With(s.validateProduct()).Post("/v1/products", s.postProduct)
	s.rt.Get("/v1/products", s.listProducts)
	s.rt.Get("/v1/products/{id}", s.getProduct)
	s.rt.With(s.validateProduct()).Patch("/v1/products/{id}", s.patchProduct)
	s.rt.Delete("/v1/products/{id}", s.deleteProduct)
	// Health and metrics (unversioned)
	s.rt.Get("/healthz", s.healthz)
	s.rt.Get("/readyz", s.readyz)
	s.rt.Method(http.MethodGet, "/metrics", metricsHandler())
}
