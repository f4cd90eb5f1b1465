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

const settlementColumns = `settlement_id, transaction_id, merchant_id, gross_amount, fee_amount,
	net_amount, currency, settlement_date, processor_reference, status, discrepancy_reason`

type SettlementRepo struct {
	db *sql.DB
}

func NewSettlementRepo(db *sql.DB) *SettlementRepo {
	return &SettlementRepo{db: db}
}

// GetByTransactionID returns the processor lines that reference txnID.
func (r *SettlementRepo) GetByTransactionID(ctx context.Context, txnID string) ([]domain.Settlement, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements WHERE transaction_id = ? ORDER BY settlement_date, settlement_id", txnID,
	)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	return collectSettlements(rows)
}

type SettlementFilter struct {
	Status            string
	DiscrepancyReason string
	Page              int
	Limit             int
}

func (r *SettlementRepo) List(ctx context.Context, f SettlementFilter) ([]domain.Settlement, int, error) {
	var clauses []string
	var args []any
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, f.Status)
	}
	if f.DiscrepancyReason != "" {
		clauses = append(clauses, "discrepancy_reason = ?")
		args = append(args, f.DiscrepancyReason)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM settlements"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	args = append(args, f.Limit, (f.Page-1)*f.Limit)

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+settlementColumns+" FROM settlements"+where+" ORDER BY settlement_date, settlement_id LIMIT ? OFFSET ?",
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	settlements, err := collectSettlements(rows)
	if err != nil {
		return nil, 0, err
	}
	return settlements, total, nil
}

// DayCurrencyGross is the settled gross for one settlement date and
// currency code, as reported by the processor.
type DayCurrencyGross struct {
	Day         string
	Currency    string
	Settlements int
	Gross       decimal.Decimal
}

func (r *SettlementRepo) GetGrossByDayCurrency(ctx context.Context) ([]DayCurrencyGross, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT settlement_date, COALESCE(currency, ''), COUNT(*), COALESCE(SUM(gross_amount), 0)
		FROM settlements
		GROUP BY settlement_date, currency
		ORDER BY settlement_date, currency
	`)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var result []DayCurrencyGross
	for rows.Next() {
		var g DayCurrencyGross
		var gross float64
		if err := rows.Scan(&g.Day, &g.Currency, &g.Settlements, &gross); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		g.Gross = decimal.NewFromFloat(gross).Round(2)
		result = append(result, g)
	}
	return result, rows.Err()
}

func collectSettlements(rows *sql.Rows) ([]domain.Settlement, error) {
	settlements := []domain.Settlement{}
	for rows.Next() {
		var s domain.Settlement
		var merchantID, currency, procRef, reason sql.NullString
		var status, settleDate string

		err := rows.Scan(
			&s.ID, &s.TransactionID, &merchantID, &s.GrossAmount, &s.FeeAmount,
			&s.NetAmount, &currency, &settleDate, &procRef, &status, &reason,
		)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}

		s.MerchantID = merchantID.String
		s.Currency = currency.String
		s.ProcessorReference = procRef.String
		s.Status = domain.SettlementStatus(status)
		s.DiscrepancyReason = domain.DiscrepancyReason(reason.String)
		s.SettlementDate, _ = time.Parse(domain.DateLayout, settleDate)
		settlements = append(settlements, s)
	}
	return settlements, rows.Err()
}
