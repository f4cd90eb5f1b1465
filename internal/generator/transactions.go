package generator

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openledger/generator/internal/domain"
)

// ErrEmptyPool is returned when a draw needs an identity and there is none.
var ErrEmptyPool = errors.New("empty identity pool")

const (
	transactionIDPrefix = "txn_"
	ledgerIDPrefix      = "le_"

	firstHour       = 6
	lastHour        = 23
	futureShift     = 365
	merchantPadding = "  "
)

var malformedCurrencies = []string{"cad", "$CAD", "USD"}

// Transaction defect names, in band order.
const (
	DefectMissingAmount     = "missing_amount"
	DefectMissingUser       = "missing_user"
	DefectNegativeAmount    = "negative_amount"
	DefectFutureDate        = "future_date"
	DefectMalformedCurrency = "malformed_currency"
	DefectPaddedMerchant    = "padded_merchant"
)

// TransactionDefects builds the field-level defect table for transactions.
func TransactionDefects(r TransactionDefectRates) (DefectTable[domain.Transaction], error) {
	return NewDefectTable(
		Defect[domain.Transaction]{Name: DefectMissingAmount, Rate: r.MissingAmount, Apply: func(_ *Rand, t *domain.Transaction) bool {
			t.Amount = decimal.NullDecimal{}
			return true
		}},
		Defect[domain.Transaction]{Name: DefectMissingUser, Rate: r.MissingUser, Apply: func(_ *Rand, t *domain.Transaction) bool {
			t.UserID = ""
			return true
		}},
		Defect[domain.Transaction]{Name: DefectNegativeAmount, Rate: r.NegativeAmount, Apply: func(_ *Rand, t *domain.Transaction) bool {
			if t.Amount.Valid {
				t.Amount.Decimal = t.Amount.Decimal.Neg()
			}
			return true
		}},
		Defect[domain.Transaction]{Name: DefectFutureDate, Rate: r.FutureDate, Apply: func(_ *Rand, t *domain.Transaction) bool {
			t.EventTime = t.EventTime.AddDate(0, 0, futureShift)
			return true
		}},
		Defect[domain.Transaction]{Name: DefectMalformedCurrency, Rate: r.MalformedCurrency, Apply: func(rng *Rand, t *domain.Transaction) bool {
			t.Currency = pick(rng, malformedCurrencies)
			return true
		}},
		Defect[domain.Transaction]{Name: DefectPaddedMerchant, Rate: r.PaddedMerchant, Apply: func(_ *Rand, t *domain.Transaction) bool {
			t.MerchantID = merchantPadding + t.MerchantID + merchantPadding
			return true
		}},
	)
}

// Synthesizer produces one day of internal transactions and their ledger
// postings. It only reads the identity pools.
type Synthesizer struct {
	users         []domain.User
	merchants     []domain.Merchant
	policy        TransactionPolicy
	defects       DefectTable[domain.Transaction]
	duplicateRate float64
}

func NewSynthesizer(users []domain.User, merchants []domain.Merchant, policy TransactionPolicy) (*Synthesizer, error) {
	if len(users) == 0 {
		return nil, fmt.Errorf("%w: no users to transact", ErrEmptyPool)
	}
	if len(merchants) == 0 {
		return nil, fmt.Errorf("%w: no merchants to transact with", ErrEmptyPool)
	}
	defects, err := TransactionDefects(policy.Defects)
	if err != nil {
		return nil, fmt.Errorf("transaction defects: %w", err)
	}
	return &Synthesizer{
		users:         users,
		merchants:     merchants,
		policy:        policy,
		defects:       defects,
		duplicateRate: policy.Defects.Duplicate,
	}, nil
}

// GenerateTransactions produces the batch for date (midnight UTC) and the
// ledger entries of every transaction that passes the gate. Duplicates are
// appended verbatim and never re-posted.
func (s *Synthesizer) GenerateTransactions(rng *Rand, date time.Time) ([]domain.Transaction, []domain.LedgerEntry) {
	n := s.policy.Volume.Count(rng, date)
	txns := make([]domain.Transaction, 0, n+n/10)
	entries := make([]domain.LedgerEntry, 0, 2*n)

	for i := 0; i < n; i++ {
		txn := s.newTransaction(rng, date)
		s.defects.Apply(rng, &txn)

		txns = append(txns, txn)
		if rng.Float64() < s.duplicateRate {
			txns = append(txns, txn)
		}
		entries = append(entries, PostLedger(&txn)...)
	}
	return txns, entries
}

func (s *Synthesizer) newTransaction(rng *Rand, date time.Time) domain.Transaction {
	user := pick(rng, s.users)
	merchant := pick(rng, s.merchants)
	amount := rng.Cents(s.policy.MinAmount, s.policy.MaxAmount)
	hour := rng.IntRange(firstHour, lastHour)
	minute := rng.IntRange(0, 59)

	return domain.Transaction{
		ID:         transactionIDPrefix + rng.UUID().String(),
		UserID:     user.ID,
		MerchantID: merchant.ID,
		Amount:     decimal.NewNullDecimal(amount),
		Currency:   s.policy.Currency,
		Type:       domain.TypePurchase,
		EventTime:  date.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute),
		Status:     domain.StatusCompleted,
	}
}
