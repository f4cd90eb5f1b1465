package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledger/generator/internal/export"
	"github.com/openledger/generator/internal/metrics"
	"github.com/openledger/generator/internal/repository"
)

func setupServer(t *testing.T) (*httptest.Server, *prometheus.Registry) {
	t.Helper()
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "warehouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	seedWarehouse(t, db)

	reg := prometheus.NewRegistry()
	metrics.NewLoaderMetrics(reg).AddRows(repository.TableTransactions, metrics.OutcomeLoaded, 3)

	srv := httptest.NewServer(NewRouter(db, reg, nil))
	t.Cleanup(srv.Close)
	return srv, reg
}

func seedWarehouse(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx := context.Background()
	d := decimal.RequireFromString

	load := func(table string, cols []string, rows [][]any) {
		_, err := repository.BulkReplace(ctx, db, table, cols, rows, nil)
		require.NoError(t, err)
	}
	load(repository.TableUsers, export.UserColumns, [][]any{
		{"user_0000aaaa", "2024-06-01T00:00:00", "CA", "CAD", 0.12},
	})
	load(repository.TableMerchants, export.MerchantColumns, [][]any{
		{"merchant_0000bbbb", "Maple Goods Co", "grocery", "CA", 0.05},
	})
	load(repository.TableTransactions, export.TransactionColumns, [][]any{
		{"txn_posted", "user_0000aaaa", "merchant_0000bbbb", d("40.00"), "CAD", "purchase", "2025-01-01T09:00:00", "completed"},
		{"txn_posted", "user_0000aaaa", "merchant_0000bbbb", d("40.00"), "CAD", "purchase", "2025-01-01T09:00:00", "completed"},
		{"txn_skipped", "user_0000aaaa", "merchant_0000bbbb", nil, "CAD", "purchase", "2025-01-01T11:15:00", "completed"},
		{"txn_usd", nil, "merchant_0000bbbb", d("10.00"), "USD", "purchase", "2025-01-02T08:00:00", "completed"},
	})
	load(repository.TableLedgerEntries, export.LedgerColumns, [][]any{
		{"le_txn_posted_cr", "txn_posted", "merchant", "merchant_0000bbbb", "credit", d("40.00"), "2025-01-01T09:00:00"},
		{"le_txn_posted_dr", "txn_posted", "user", "user_0000aaaa", "debit", d("40.00"), "2025-01-01T09:00:00"},
	})
	load(repository.TableSettlements, export.SettlementColumns, [][]any{
		{"stl_1", "txn_posted", "merchant_0000bbbb", d("40.00"), d("1.10"), d("38.90"), "CAD", "2025-01-03", "PRC-AAAAAAAAAA", "settled", nil},
		{"stl_2", "txn_posted", "merchant_0000bbbb", d("40.00"), d("1.10"), d("38.90"), "CAD", "2025-01-03", "PRC-BBBBBBBBBB", "settled", nil},
		{"stl_3", "txn_usd", "merchant_0000bbbb", d("10.00"), d("0.50"), d("8.50"), "USD", "2025-01-03", "PRC-CCCCCCCCCC", "settled", "amount_mismatch"},
		{"stl_4", "txn_ghost", "merchant_0000bbbb", d("5.00"), d("0.40"), d("4.60"), "cad", "2025-01-04", "PRC-DDDDDDDDDD", "settled", "external_only"},
	})
}

func getJSON(t *testing.T, url string, want int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, want, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestLedgerEntriesForPostedAndSkippedTransactions(t *testing.T) {
	srv, _ := setupServer(t)

	var posted struct {
		Deliveries int  `json:"deliveries"`
		Posted     bool `json:"posted"`
		Entries    []struct {
			EntryType   string `json:"entry_type"`
			AccountType string `json:"account_type"`
			Amount      string `json:"amount"`
		} `json:"ledger_entries"`
	}
	getJSON(t, srv.URL+"/api/v1/transactions/txn_posted/ledger-entries", http.StatusOK, &posted)
	assert.Equal(t, 2, posted.Deliveries)
	assert.True(t, posted.Posted)
	require.Len(t, posted.Entries, 2)
	assert.Equal(t, "debit", posted.Entries[0].EntryType)
	assert.Equal(t, "user", posted.Entries[0].AccountType)
	assert.Equal(t, "credit", posted.Entries[1].EntryType)
	assert.Equal(t, posted.Entries[0].Amount, posted.Entries[1].Amount)

	var skipped struct {
		Posted  bool  `json:"posted"`
		Entries []any `json:"ledger_entries"`
	}
	getJSON(t, srv.URL+"/api/v1/transactions/txn_skipped/ledger-entries", http.StatusOK, &skipped)
	assert.False(t, skipped.Posted)
	assert.Empty(t, skipped.Entries)

	var notFound map[string]string
	getJSON(t, srv.URL+"/api/v1/transactions/txn_nope/ledger-entries", http.StatusNotFound, &notFound)
	assert.Equal(t, "transaction not found", notFound["error"])
}

func TestTransactionSettlementsIncludeOrphans(t *testing.T) {
	srv, _ := setupServer(t)

	var body struct {
		Known       bool `json:"known"`
		Settlements []struct {
			ID                string `json:"settlement_id"`
			DiscrepancyReason string `json:"discrepancy_reason"`
		} `json:"settlements"`
	}
	getJSON(t, srv.URL+"/api/v1/transactions/txn_posted/settlements", http.StatusOK, &body)
	assert.True(t, body.Known)
	assert.Len(t, body.Settlements, 2)

	getJSON(t, srv.URL+"/api/v1/transactions/txn_ghost/settlements", http.StatusOK, &body)
	assert.False(t, body.Known)
	require.Len(t, body.Settlements, 1)
	assert.Equal(t, "external_only", body.Settlements[0].DiscrepancyReason)
}

func TestListEndpointsFilterAndPaginate(t *testing.T) {
	srv, _ := setupServer(t)

	tests := []struct {
		name  string
		path  string
		key   string
		total int
		items int
	}{
		{"all transactions", "/api/v1/transactions", "transactions", 4, 4},
		{"by currency", "/api/v1/transactions?currency=USD", "transactions", 1, 1},
		{"by user", "/api/v1/transactions?user_id=user_0000aaaa", "transactions", 3, 3},
		{"by window", "/api/v1/transactions?from=2025-01-02", "transactions", 1, 1},
		{"second page", "/api/v1/transactions?limit=3&page=2", "transactions", 4, 1},
		{"settlements by reason", "/api/v1/settlements?discrepancy_reason=external_only", "settlements", 1, 1},
		{"settled", "/api/v1/settlements?status=settled&limit=2", "settlements", 4, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]json.RawMessage
			getJSON(t, srv.URL+tt.path, http.StatusOK, &body)

			var total int
			require.NoError(t, json.Unmarshal(body["total"], &total))
			assert.Equal(t, tt.total, total)

			var items []any
			require.NoError(t, json.Unmarshal(body[tt.key], &items))
			assert.Len(t, items, tt.items)
		})
	}
}

func TestDailySummary(t *testing.T) {
	srv, _ := setupServer(t)

	var body struct {
		Base string `json:"base_currency"`
		Days []struct {
			Day           string `json:"day"`
			Transactions  int    `json:"transactions"`
			NullAmounts   int    `json:"null_amounts"`
			Amount        string `json:"amount"`
			LedgerEntries int    `json:"ledger_entries"`
			Settlements   int    `json:"settlements"`
			ExposureCAD   string `json:"exposure_cad"`
			Unpriced      int    `json:"unpriced_settlements"`
		} `json:"days"`
	}
	getJSON(t, srv.URL+"/api/v1/summary/daily", http.StatusOK, &body)
	assert.Equal(t, "CAD", body.Base)
	require.Len(t, body.Days, 4)

	assert.Equal(t, "2025-01-01", body.Days[0].Day)
	assert.Equal(t, 3, body.Days[0].Transactions)
	assert.Equal(t, 1, body.Days[0].NullAmounts)
	assert.Equal(t, "80", body.Days[0].Amount)
	assert.Equal(t, 2, body.Days[0].LedgerEntries)

	// 80.00 CAD + 10.00 USD at 1.44.
	assert.Equal(t, "2025-01-03", body.Days[2].Day)
	assert.Equal(t, 3, body.Days[2].Settlements)
	assert.Equal(t, "94.4", body.Days[2].ExposureCAD)

	assert.Equal(t, "2025-01-04", body.Days[3].Day)
	assert.Equal(t, 1, body.Days[3].Unpriced)
	assert.Equal(t, "0", body.Days[3].ExposureCAD)
}

func TestTablesAndMetrics(t *testing.T) {
	srv, _ := setupServer(t)

	var body struct {
		Tables map[string]int `json:"tables"`
	}
	getJSON(t, srv.URL+"/api/v1/tables", http.StatusOK, &body)
	assert.Equal(t, map[string]int{
		"users": 1, "merchants": 1, "transactions": 4, "ledger_entries": 2, "settlements": 4,
	}, body.Tables)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(raw), `openledger_load_rows_total{outcome="loaded",table="transactions"} 3`))
}
