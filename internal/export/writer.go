package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/openledger/generator/internal/domain"
	"github.com/openledger/generator/internal/generator"
)

// File names, one per table.
const (
	UsersFile         = "users.csv"
	MerchantsFile     = "merchants.csv"
	TransactionsFile  = "transactions.csv"
	LedgerEntriesFile = "ledger_entries.csv"
	SettlementsFile   = "settlements.csv"
)

var (
	UserColumns        = []string{"user_id", "created_at", "country", "primary_currency", "risk_score"}
	MerchantColumns    = []string{"merchant_id", "merchant_name", "category", "country", "risk_score"}
	TransactionColumns = []string{"transaction_id", "user_id", "merchant_id", "amount", "currency", "transaction_type", "event_time", "status"}
	LedgerColumns      = []string{"entry_id", "transaction_id", "account_type", "account_id", "entry_type", "amount", "event_time"}
	SettlementColumns  = []string{
		"settlement_id", "transaction_id", "merchant_id", "gross_amount", "fee_amount", "net_amount",
		"currency", "settlement_date", "processor_reference", "status", "discrepancy_reason",
	}
)

// FileInfo describes one written file.
type FileInfo struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// Manifest lists the files of a dataset in write order.
type Manifest []FileInfo

type table struct {
	name    string
	columns []string
	rows    [][]string
}

// WriteDataset writes every table of ds as a CSV file under dir. Each file
// is staged next to its destination and renamed into place, so a failed run
// never leaves a half-written table behind.
func WriteDataset(dir string, ds *generator.Dataset) (Manifest, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	tables := []table{
		{UsersFile, UserColumns, userRows(ds.Users)},
		{MerchantsFile, MerchantColumns, merchantRows(ds.Merchants)},
		{TransactionsFile, TransactionColumns, transactionRows(ds.Transactions)},
		{LedgerEntriesFile, LedgerColumns, ledgerRows(ds.LedgerEntries)},
		{SettlementsFile, SettlementColumns, settlementRows(ds.Settlements)},
	}

	manifest := make(Manifest, 0, len(tables))
	for _, t := range tables {
		if err := writeCSV(filepath.Join(dir, t.name), t.columns, t.rows); err != nil {
			return manifest, fmt.Errorf("write %s: %w", t.name, err)
		}
		manifest = append(manifest, FileInfo{Name: t.name, Rows: len(t.rows)})
	}
	return manifest, nil
}

func writeCSV(path string, header []string, rows [][]string) (err error) {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	w := csv.NewWriter(f)
	if err = w.Write(header); err == nil {
		err = w.WriteAll(rows)
	}
	if err != nil {
		return multierr.Append(fmt.Errorf("write rows: %w", err), f.Close())
	}
	if err = multierr.Append(f.Sync(), f.Close()); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err = os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func userRows(users []domain.User) [][]string {
	rows := make([][]string, 0, len(users))
	for _, u := range users {
		rows = append(rows, []string{
			u.ID, u.CreatedAt.Format(domain.TimestampLayout), u.Country, u.PrimaryCurrency, formatScore(u.RiskScore),
		})
	}
	return rows
}

func merchantRows(merchants []domain.Merchant) [][]string {
	rows := make([][]string, 0, len(merchants))
	for _, m := range merchants {
		rows = append(rows, []string{m.ID, m.Name, m.Category, m.Country, formatScore(m.RiskScore)})
	}
	return rows
}

func transactionRows(txns []domain.Transaction) [][]string {
	rows := make([][]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, []string{
			t.ID, t.UserID, t.MerchantID, formatNullMoney(t.Amount), t.Currency,
			string(t.Type), t.EventTime.Format(domain.TimestampLayout), string(t.Status),
		})
	}
	return rows
}

func ledgerRows(entries []domain.LedgerEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.ID, e.TransactionID, string(e.AccountType), e.AccountID, string(e.EntryType),
			formatMoney(e.Amount), e.EventTime.Format(domain.TimestampLayout),
		})
	}
	return rows
}

func settlementRows(settlements []domain.Settlement) [][]string {
	rows := make([][]string, 0, len(settlements))
	for _, s := range settlements {
		rows = append(rows, []string{
			s.ID, s.TransactionID, s.MerchantID, formatNullMoney(s.GrossAmount),
			formatMoney(s.FeeAmount), formatMoney(s.NetAmount), s.Currency,
			s.SettlementDate.Format(domain.DateLayout), s.ProcessorReference,
			string(s.Status), string(s.DiscrepancyReason),
		})
	}
	return rows
}

func formatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// formatNullMoney writes a null amount as an empty field.
func formatNullMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return formatMoney(d.Decimal)
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
