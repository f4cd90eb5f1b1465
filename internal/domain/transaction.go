package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout is the wire format for event and creation times.
const TimestampLayout = "2006-01-02T15:04:05"

// DateLayout is the wire format for settlement dates.
const DateLayout = "2006-01-02"

type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "completed"
)

type TransactionType string

const (
	TypePurchase TransactionType = "purchase"
)

// Transaction is a purchase recorded by the internal system of record.
// Amount, UserID, Currency and MerchantID may be deliberately corrupted;
// an empty UserID and an invalid Amount both mean null.
type Transaction struct {
	ID         string              `json:"transaction_id"`
	UserID     string              `json:"user_id"`
	MerchantID string              `json:"merchant_id"`
	Amount     decimal.NullDecimal `json:"amount"`
	Currency   string              `json:"currency"`
	Type       TransactionType     `json:"transaction_type"`
	EventTime  time.Time           `json:"event_time"`
	Status     TransactionStatus   `json:"status"`
}

// HasAmount reports whether the amount field is non-null.
func (t *Transaction) HasAmount() bool {
	return t.Amount.Valid
}

// HasUser reports whether the user id field is non-null.
func (t *Transaction) HasUser() bool {
	return t.UserID != ""
}
