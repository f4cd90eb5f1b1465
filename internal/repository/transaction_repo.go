package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openledger/generator/internal/domain"
)

const transactionColumns = "transaction_id, user_id, merchant_id, amount, currency, transaction_type, event_time, status"

type TransactionRepo struct {
	db *sql.DB
}

func NewTransactionRepo(db *sql.DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func (r *TransactionRepo) Count(ctx context.Context) (int, error) {
	return CountRows(ctx, r.db, TableTransactions)
}

// GetByID returns every delivery of the transaction; duplicates share an id.
func (r *TransactionRepo) GetByID(ctx context.Context, id string) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE transaction_id = ? ORDER BY rowid", id,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	return collectTransactions(rows)
}

type TransactionFilter struct {
	UserID     string
	MerchantID string
	Currency   string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

func (r *TransactionRepo) List(ctx context.Context, f TransactionFilter) ([]domain.Transaction, int, error) {
	where, args := buildTransactionWhere(f)

	var total int
	countSQL := "SELECT COUNT(*) FROM transactions" + where
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	querySQL := "SELECT " + transactionColumns + " FROM transactions" + where + " ORDER BY event_time, rowid LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	txns, err := collectTransactions(rows)
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}

// DailyVolume is the transaction count and gross amount for one calendar day.
type DailyVolume struct {
	Day          string          `json:"day"`
	Transactions int             `json:"transactions"`
	Amount       decimal.Decimal `json:"amount"`
	NullAmounts  int             `json:"null_amounts"`
}

func (r *TransactionRepo) GetDailyVolume(ctx context.Context) ([]DailyVolume, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT substr(event_time, 1, 10) AS day,
			COUNT(*),
			COALESCE(SUM(amount), 0),
			SUM(CASE WHEN amount IS NULL THEN 1 ELSE 0 END)
		FROM transactions
		GROUP BY day
		ORDER BY day
	`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var result []DailyVolume
	for rows.Next() {
		var dv DailyVolume
		var amount float64
		if err := rows.Scan(&dv.Day, &dv.Transactions, &amount, &dv.NullAmounts); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		dv.Amount = decimal.NewFromFloat(amount).Round(2)
		result = append(result, dv)
	}
	return result, rows.Err()
}

// --- helpers ---

func buildTransactionWhere(f TransactionFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.MerchantID != "" {
		clauses = append(clauses, "merchant_id = ?")
		args = append(args, f.MerchantID)
	}
	if f.Currency != "" {
		clauses = append(clauses, "currency = ?")
		args = append(args, f.Currency)
	}
	if f.From != nil {
		clauses = append(clauses, "event_time >= ?")
		args = append(args, f.From.Format(domain.TimestampLayout))
	}
	if f.To != nil {
		clauses = append(clauses, "event_time <= ?")
		args = append(args, f.To.Format(domain.TimestampLayout))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	txns := []domain.Transaction{}
	for rows.Next() {
		var tx domain.Transaction
		var userID, merchantID, currency, txnType, status sql.NullString
		var eventTime string

		err := rows.Scan(
			&tx.ID, &userID, &merchantID, &tx.Amount, &currency,
			&txnType, &eventTime, &status,
		)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		tx.UserID = userID.String
		tx.MerchantID = merchantID.String
		tx.Currency = currency.String
		tx.Type = domain.TransactionType(txnType.String)
		tx.Status = domain.TransactionStatus(status.String)
		tx.EventTime, _ = time.Parse(domain.TimestampLayout, eventTime)
		txns = append(txns, tx)
	}
	return txns, rows.Err()
}
