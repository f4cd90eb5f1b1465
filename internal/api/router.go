package api

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openledger/generator/internal/logger"
	"github.com/openledger/generator/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted. gatherer
// backs /metrics and may be nil.
func NewRouter(db *sql.DB, gatherer prometheus.Gatherer, log *logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	h := &Handlers{
		db:         db,
		txnRepo:    repository.NewTransactionRepo(db),
		ledgerRepo: repository.NewLedgerRepo(db),
		settRepo:   repository.NewSettlementRepo(db),
		log:        log,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		// Transactions.
		r.Get("/transactions", h.ListTransactions)
		r.Get("/transactions/{id}/ledger-entries", h.GetTransactionLedgerEntries)
		r.Get("/transactions/{id}/settlements", h.GetTransactionSettlements)

		// Settlements.
		r.Get("/settlements", h.ListSettlements)

		// Overview.
		r.Get("/summary/daily", h.GetDailySummary)
		r.Get("/tables", h.ListTables)
	})

	return r
}
