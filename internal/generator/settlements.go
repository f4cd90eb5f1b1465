package generator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openledger/generator/internal/domain"
)

const (
	settlementIDPrefix = "stl_"
	processorRefPrefix = "PRC-"
	processorRefLen    = 10
)

// Settlement defect names, in band order.
const (
	DefectAmountMismatch = "amount_mismatch"
	DefectFailed         = "failed"
	DefectDropped        = "dropped"
)

// SettlementDefects builds the processor-side defect table.
func SettlementDefects(r SettlementDefectRates, mismatch decimal.Decimal) (DefectTable[domain.Settlement], error) {
	return NewDefectTable(
		Defect[domain.Settlement]{Name: DefectAmountMismatch, Rate: r.AmountMismatch, Apply: func(_ *Rand, s *domain.Settlement) bool {
			s.NetAmount = s.NetAmount.Sub(mismatch)
			s.DiscrepancyReason = domain.ReasonAmountMismatch
			return true
		}},
		Defect[domain.Settlement]{Name: DefectFailed, Rate: r.Failed, Apply: func(_ *Rand, s *domain.Settlement) bool {
			s.Status = domain.SettlementFailed
			return true
		}},
		Defect[domain.Settlement]{Name: DefectDropped, Rate: r.Dropped, Apply: func(_ *Rand, _ *domain.Settlement) bool {
			return false
		}},
	)
}

// SettlementSimulator emulates the external processor's settlement feed.
// It reads transactions only and never consults the ledger.
type SettlementSimulator struct {
	policy  SettlementPolicy
	defects DefectTable[domain.Settlement]
}

func NewSettlementSimulator(policy SettlementPolicy) (*SettlementSimulator, error) {
	defects, err := SettlementDefects(policy.Defects, policy.MismatchDelta)
	if err != nil {
		return nil, fmt.Errorf("settlement defects: %w", err)
	}
	return &SettlementSimulator{policy: policy, defects: defects}, nil
}

// Fee is round(gross*rate + fixed, 2).
func (s *SettlementSimulator) Fee(gross decimal.Decimal) decimal.Decimal {
	return gross.Mul(s.policy.FeeRate).Add(s.policy.FeeFixed).Round(2)
}

// GenerateSettlements settles every completed transaction in order, one
// defect draw each. Dropped settlements are simply absent from the result.
func (s *SettlementSimulator) GenerateSettlements(rng *Rand, txns []domain.Transaction) []domain.Settlement {
	out := make([]domain.Settlement, 0, len(txns))
	for i := range txns {
		if txns[i].Status != domain.StatusCompleted {
			continue
		}
		stl := s.settle(rng, &txns[i])
		if _, keep := s.defects.Apply(rng, &stl); keep {
			out = append(out, stl)
		}
	}
	return out
}

// settle builds the clean settlement for txn. A null gross is priced as
// zero but still reported as null.
func (s *SettlementSimulator) settle(rng *Rand, txn *domain.Transaction) domain.Settlement {
	gross := decimal.Zero
	if txn.Amount.Valid {
		gross = txn.Amount.Decimal
	}
	fee := s.Fee(gross)
	offset := rng.IntRange(s.policy.MinOffsetDays, s.policy.MaxOffsetDays)

	return domain.Settlement{
		ID:                 settlementIDPrefix + rng.UUID().String(),
		TransactionID:      txn.ID,
		MerchantID:         txn.MerchantID,
		GrossAmount:        txn.Amount,
		FeeAmount:          fee,
		NetAmount:          gross.Sub(fee).Round(2),
		Currency:           txn.Currency,
		SettlementDate:     dateOf(txn.EventTime).AddDate(0, 0, offset),
		ProcessorReference: processorRefPrefix + rng.Alnum(processorRefLen),
		Status:             domain.SettlementSettled,
	}
}

// OrphanCount is floor(total*rate), computed exactly.
func OrphanCount(total int, rate float64) int {
	return int(decimal.NewFromInt(int64(total)).Mul(decimal.NewFromFloat(rate)).Floor().IntPart())
}

// OrphanSpec describes the window and pools orphan settlements draw from.
type OrphanSpec struct {
	Count     int
	Merchants []domain.Merchant
	Start     time.Time
	Days      int
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	Currency  string
	// Known holds every internal transaction id; orphans never reuse one.
	Known map[string]struct{}
}

// GenerateOrphans emits settlements the internal system has never seen.
func (s *SettlementSimulator) GenerateOrphans(rng *Rand, spec OrphanSpec) ([]domain.Settlement, error) {
	if spec.Count <= 0 {
		return nil, nil
	}
	if len(spec.Merchants) == 0 {
		return nil, fmt.Errorf("%w: no merchants for orphan settlements", ErrEmptyPool)
	}
	days := spec.Days
	if days < 1 {
		days = 1
	}

	out := make([]domain.Settlement, 0, spec.Count)
	for i := 0; i < spec.Count; i++ {
		txnID := transactionIDPrefix + rng.UUID().String()
		for {
			if _, clash := spec.Known[txnID]; !clash {
				break
			}
			txnID = transactionIDPrefix + rng.UUID().String()
		}

		merchant := pick(rng, spec.Merchants)
		gross := rng.Cents(spec.MinAmount, spec.MaxAmount)
		fee := s.Fee(gross)
		day := spec.Start.AddDate(0, 0, rng.Intn(days))
		offset := rng.IntRange(s.policy.MinOffsetDays, s.policy.MaxOffsetDays)

		out = append(out, domain.Settlement{
			ID:                 settlementIDPrefix + rng.UUID().String(),
			TransactionID:      txnID,
			MerchantID:         merchant.ID,
			GrossAmount:        decimal.NewNullDecimal(gross),
			FeeAmount:          fee,
			NetAmount:          gross.Sub(fee).Round(2),
			Currency:           spec.Currency,
			SettlementDate:     dateOf(day).AddDate(0, 0, offset),
			ProcessorReference: processorRefPrefix + rng.Alnum(processorRefLen),
			Status:             domain.SettlementSettled,
			DiscrepancyReason:  domain.ReasonExternalOnly,
		})
	}
	return out, nil
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
