package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/openledger/generator/internal/domain"
)

type LedgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

// GetByTransactionID returns the entries posted for txnID, debit first.
func (r *LedgerRepo) GetByTransactionID(ctx context.Context, txnID string) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT entry_id, transaction_id, account_type, account_id, entry_type, amount, event_time
		FROM ledger_entries
		WHERE transaction_id = ?
		ORDER BY CASE entry_type WHEN 'debit' THEN 0 ELSE 1 END, entry_id
	`, txnID)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	entries := []domain.LedgerEntry{}
	for rows.Next() {
		var e domain.LedgerEntry
		var accountType, entryType, eventTime string
		var accountID sql.NullString
		if err := rows.Scan(&e.ID, &e.TransactionID, &accountType, &accountID, &entryType, &e.Amount, &eventTime); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		e.AccountType = domain.AccountType(accountType)
		e.AccountID = accountID.String
		e.EntryType = domain.EntryType(entryType)
		e.EventTime, _ = time.Parse(domain.TimestampLayout, eventTime)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetDailyEntryCounts returns posted entries per event day.
func (r *LedgerRepo) GetDailyEntryCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(event_time, 1, 10) AS day, COUNT(*)
		FROM ledger_entries
		GROUP BY day
	`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		counts[day] = n
	}
	return counts, rows.Err()
}
