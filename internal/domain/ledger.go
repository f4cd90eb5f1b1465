package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountType string

const (
	AccountUser     AccountType = "user"
	AccountMerchant AccountType = "merchant"
)

type EntryType string

const (
	EntryDebit  EntryType = "debit"
	EntryCredit EntryType = "credit"
)

type LedgerEntry struct {
	ID            string          `json:"entry_id"`
	TransactionID string          `json:"transaction_id"`
	AccountType   AccountType     `json:"account_type"`
	AccountID     string          `json:"account_id"`
	EntryType     EntryType       `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	EventTime     time.Time       `json:"event_time"`
}
