package repository

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Warehouse table names.
const (
	TableUsers         = "users"
	TableMerchants     = "merchants"
	TableTransactions  = "transactions"
	TableLedgerEntries = "ledger_entries"
	TableSettlements   = "settlements"
)

// Tables lists every warehouse table in load order.
var Tables = []string{TableUsers, TableMerchants, TableTransactions, TableLedgerEntries, TableSettlements}

// InitDB opens (or creates) a SQLite database at the given path and ensures
// all required tables exist. Pass ":memory:" for an in-memory database.
func InitDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Each connection to ":memory:" is a separate database.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return db, nil
}

// The warehouse mirrors the generated files column for column. Defect
// columns stay nullable and there are no foreign keys: dirty rows must land
// so that downstream reconciliation can find them. Transaction ids are not
// unique because duplicate deliveries are part of the data.
func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			country TEXT,
			primary_currency TEXT,
			risk_score REAL
		)`,

		`CREATE TABLE IF NOT EXISTS merchants (
			merchant_id TEXT PRIMARY KEY,
			merchant_name TEXT,
			category TEXT,
			country TEXT,
			risk_score REAL
		)`,

		`CREATE TABLE IF NOT EXISTS transactions (
			transaction_id TEXT NOT NULL,
			user_id TEXT,
			merchant_id TEXT,
			amount REAL,
			currency TEXT,
			transaction_type TEXT,
			event_time TEXT NOT NULL,
			status TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_id ON transactions(transaction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user ON transactions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_event_time ON transactions(event_time)`,

		`CREATE TABLE IF NOT EXISTS ledger_entries (
			entry_id TEXT PRIMARY KEY,
			transaction_id TEXT NOT NULL,
			account_type TEXT NOT NULL,
			account_id TEXT,
			entry_type TEXT NOT NULL,
			amount REAL NOT NULL,
			event_time TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_entries_txn ON ledger_entries(transaction_id)`,

		`CREATE TABLE IF NOT EXISTS settlements (
			settlement_id TEXT PRIMARY KEY,
			transaction_id TEXT NOT NULL,
			merchant_id TEXT,
			gross_amount REAL,
			fee_amount REAL NOT NULL,
			net_amount REAL NOT NULL,
			currency TEXT,
			settlement_date TEXT NOT NULL,
			processor_reference TEXT,
			status TEXT NOT NULL,
			discrepancy_reason TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_txn ON settlements(transaction_id)`,
		`CREATE INDEX IF NOT EXISTS idx_settlements_status ON settlements(status)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}

	return nil
}

func knownTable(name string) bool {
	for _, t := range Tables {
		if t == name {
			return true
		}
	}
	return false
}
