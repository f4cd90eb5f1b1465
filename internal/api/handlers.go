package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/openledger/generator/internal/currency"
	"github.com/openledger/generator/internal/domain"
	"github.com/openledger/generator/internal/logger"
	"github.com/openledger/generator/internal/repository"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	db         *sql.DB
	txnRepo    *repository.TransactionRepo
	ledgerRepo *repository.LedgerRepo
	settRepo   *repository.SettlementRepo
	log        *logger.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error(r.Context(), "encode response", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	h.writeJSON(w, r, status, map[string]string{"error": msg})
}

func (h *Handlers) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.log.Error(h.log.WithField(r.Context(), "path", r.URL.Path), "request failed", err)
	h.writeError(w, r, http.StatusInternalServerError, err.Error())
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(domain.TimestampLayout, s)
	if err != nil {
		t, err = time.Parse(domain.DateLayout, s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// --- ListTransactions ---

func (h *Handlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.TransactionFilter{
		UserID:     q.Get("user_id"),
		MerchantID: q.Get("merchant_id"),
		Currency:   q.Get("currency"),
		From:       parseTime(q.Get("from")),
		To:         parseTime(q.Get("to")),
		Page:       parseIntDefault(q.Get("page"), 1),
		Limit:      parseIntDefault(q.Get("limit"), 50),
	}

	txns, total, err := h.txnRepo.List(r.Context(), filter)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"transactions": txns,
		"total":        total,
		"page":         filter.Page,
		"limit":        filter.Limit,
	})
}

// --- GetTransactionLedgerEntries ---

func (h *Handlers) GetTransactionLedgerEntries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	txns, err := h.txnRepo.GetByID(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if len(txns) == 0 {
		h.writeError(w, r, http.StatusNotFound, "transaction not found")
		return
	}

	entries, err := h.ledgerRepo.GetByTransactionID(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"transaction_id": id,
		"deliveries":     len(txns),
		"posted":         len(entries) > 0,
		"ledger_entries": entries,
	})
}

// --- GetTransactionSettlements ---

// Settlements are looked up even when the transaction is unknown: orphan
// lines reference ids that never existed internally.
func (h *Handlers) GetTransactionSettlements(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	txns, err := h.txnRepo.GetByID(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	settlements, err := h.settRepo.GetByTransactionID(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if len(txns) == 0 && len(settlements) == 0 {
		h.writeError(w, r, http.StatusNotFound, "transaction not found")
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"transaction_id": id,
		"known":          len(txns) > 0,
		"settlements":    settlements,
	})
}

// --- ListSettlements ---

func (h *Handlers) ListSettlements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.SettlementFilter{
		Status:            q.Get("status"),
		DiscrepancyReason: q.Get("discrepancy_reason"),
		Page:              parseIntDefault(q.Get("page"), 1),
		Limit:             parseIntDefault(q.Get("limit"), 50),
	}

	settlements, total, err := h.settRepo.List(r.Context(), filter)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"settlements": settlements,
		"total":       total,
		"page":        filter.Page,
		"limit":       filter.Limit,
	})
}

// --- GetDailySummary ---

type daySummary struct {
	Day           string          `json:"day"`
	Transactions  int             `json:"transactions"`
	NullAmounts   int             `json:"null_amounts"`
	Amount        decimal.Decimal `json:"amount"`
	LedgerEntries int             `json:"ledger_entries"`
	Settlements   int             `json:"settlements"`
	ExposureCAD   decimal.Decimal `json:"exposure_cad"`
	// UnpricedSettlements counts lines whose currency code is not recognised.
	UnpricedSettlements int `json:"unpriced_settlements"`
}

func (h *Handlers) GetDailySummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	volumes, err := h.txnRepo.GetDailyVolume(ctx)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	entryCounts, err := h.ledgerRepo.GetDailyEntryCounts(ctx)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	grosses, err := h.settRepo.GetGrossByDayCurrency(ctx)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	days := map[string]*daySummary{}
	day := func(d string) *daySummary {
		s, ok := days[d]
		if !ok {
			s = &daySummary{Day: d, Amount: decimal.Zero, ExposureCAD: decimal.Zero}
			days[d] = s
		}
		return s
	}

	for _, v := range volumes {
		s := day(v.Day)
		s.Transactions = v.Transactions
		s.NullAmounts = v.NullAmounts
		s.Amount = v.Amount
	}
	for d, n := range entryCounts {
		day(d).LedgerEntries = n
	}
	for _, g := range grosses {
		s := day(g.Day)
		s.Settlements += g.Settlements
		if !currency.Supported(g.Currency) {
			s.UnpricedSettlements += g.Settlements
			continue
		}
		cad, err := currency.ToCAD(g.Gross, g.Currency)
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		s.ExposureCAD = s.ExposureCAD.Add(cad)
	}

	summary := make([]daySummary, 0, len(days))
	for _, s := range days {
		summary = append(summary, *s)
	}
	sort.Slice(summary, func(i, j int) bool { return summary[i].Day < summary[j].Day })

	h.writeJSON(w, r, http.StatusOK, map[string]any{
		"base_currency": currency.Base,
		"days":          summary,
	})
}

// --- ListTables ---

func (h *Handlers) ListTables(w http.ResponseWriter, r *http.Request) {
	counts := make(map[string]int, len(repository.Tables))
	for _, table := range repository.Tables {
		n, err := repository.CountRows(r.Context(), h.db, table)
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		counts[table] = n
	}
	h.writeJSON(w, r, http.StatusOK, map[string]any{"tables": counts})
}
