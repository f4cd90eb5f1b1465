package generator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledger/generator/internal/domain"
)

func TestPostLedgerBalancedPair(t *testing.T) {
	at := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	txn := domain.Transaction{
		ID:         "txn_abc",
		UserID:     "user_1",
		MerchantID: "  merchant_1  ",
		Amount:     decimal.NewNullDecimal(decimal.RequireFromString("-12.50")),
		EventTime:  at,
	}

	entries := PostLedger(&txn)
	require.Len(t, entries, 2)

	debit, credit := entries[0], entries[1]
	assert.Equal(t, "le_abc_dr", debit.ID)
	assert.Equal(t, "le_abc_cr", credit.ID)
	assert.Equal(t, domain.EntryDebit, debit.EntryType)
	assert.Equal(t, domain.AccountUser, debit.AccountType)
	assert.Equal(t, "user_1", debit.AccountID)
	assert.Equal(t, domain.EntryCredit, credit.EntryType)
	assert.Equal(t, domain.AccountMerchant, credit.AccountType)
	assert.Equal(t, "  merchant_1  ", credit.AccountID)
	for _, e := range entries {
		assert.Equal(t, "txn_abc", e.TransactionID)
		assert.Equal(t, at, e.EventTime)
		assert.True(t, e.Amount.Equal(txn.Amount.Decimal))
	}
}

func TestPostLedgerGate(t *testing.T) {
	amount := decimal.NewNullDecimal(decimal.NewFromInt(10))
	tests := []struct {
		name string
		txn  domain.Transaction
		want bool
	}{
		{"valid", domain.Transaction{ID: "txn_1", UserID: "u", Amount: amount}, true},
		{"no amount", domain.Transaction{ID: "txn_2", UserID: "u"}, false},
		{"no user", domain.Transaction{ID: "txn_3", Amount: amount}, false},
		{"neither", domain.Transaction{ID: "txn_4"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Postable(&tt.txn))
			if tt.want {
				assert.Len(t, PostLedger(&tt.txn), 2)
			} else {
				assert.Nil(t, PostLedger(&tt.txn))
			}
		})
	}
}
