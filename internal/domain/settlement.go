package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type SettlementStatus string

const (
	SettlementSettled SettlementStatus = "settled"
	SettlementFailed  SettlementStatus = "failed"
)

// DiscrepancyReason is the processor's own annotation on a settlement line.
// The empty value serializes as null.
type DiscrepancyReason string

const (
	ReasonNone           DiscrepancyReason = ""
	ReasonAmountMismatch DiscrepancyReason = "amount_mismatch"
	ReasonExternalOnly   DiscrepancyReason = "external_only"
)

// Settlement is one line of the external processor's settlement feed.
type Settlement struct {
	ID                 string              `json:"settlement_id"`
	TransactionID      string              `json:"transaction_id"`
	MerchantID         string              `json:"merchant_id"`
	GrossAmount        decimal.NullDecimal `json:"gross_amount"`
	FeeAmount          decimal.Decimal     `json:"fee_amount"`
	NetAmount          decimal.Decimal     `json:"net_amount"`
	Currency           string              `json:"currency"`
	SettlementDate     time.Time           `json:"settlement_date"`
	ProcessorReference string              `json:"processor_reference"`
	Status             SettlementStatus    `json:"status"`
	DiscrepancyReason  DiscrepancyReason   `json:"discrepancy_reason,omitempty"`
}
