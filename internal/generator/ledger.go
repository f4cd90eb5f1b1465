package generator

import (
	"strings"

	"github.com/openledger/generator/internal/domain"
)

// Postable is the ledger gate: only transactions with both an amount and a
// user reach the ledger. Every other defect class still posts.
func Postable(txn *domain.Transaction) bool {
	return txn.HasAmount() && txn.HasUser()
}

// PostLedger emits the balanced debit/credit pair for txn. It returns nil
// for transactions that fail the gate.
func PostLedger(txn *domain.Transaction) []domain.LedgerEntry {
	if !Postable(txn) {
		return nil
	}
	suffix := strings.TrimPrefix(txn.ID, transactionIDPrefix)
	amount := txn.Amount.Decimal
	return []domain.LedgerEntry{
		{
			ID:            ledgerIDPrefix + suffix + "_dr",
			TransactionID: txn.ID,
			AccountType:   domain.AccountUser,
			AccountID:     txn.UserID,
			EntryType:     domain.EntryDebit,
			Amount:        amount,
			EventTime:     txn.EventTime,
		},
		{
			ID:            ledgerIDPrefix + suffix + "_cr",
			TransactionID: txn.ID,
			AccountType:   domain.AccountMerchant,
			AccountID:     txn.MerchantID,
			EntryType:     domain.EntryCredit,
			Amount:        amount,
			EventTime:     txn.EventTime,
		},
	}
}
