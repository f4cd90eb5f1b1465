package generator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// VolumePolicy sets the daily transaction count range by day kind.
type VolumePolicy struct {
	WeekdayMin int
	WeekdayMax int
	WeekendMin int
	WeekendMax int
}

// Count draws the number of transactions for date.
func (p VolumePolicy) Count(rng *Rand, date time.Time) int {
	switch date.Weekday() {
	case time.Saturday, time.Sunday:
		return rng.IntRange(p.WeekendMin, p.WeekendMax)
	default:
		return rng.IntRange(p.WeekdayMin, p.WeekdayMax)
	}
}

func (p VolumePolicy) validate() error {
	if p.WeekdayMin < 0 || p.WeekendMin < 0 || p.WeekdayMax < p.WeekdayMin || p.WeekendMax < p.WeekendMin {
		return fmt.Errorf("%w: volume ranges weekday [%d,%d] weekend [%d,%d]",
			ErrInvalidParams, p.WeekdayMin, p.WeekdayMax, p.WeekendMin, p.WeekendMax)
	}
	return nil
}

type TransactionDefectRates struct {
	MissingAmount     float64
	MissingUser       float64
	NegativeAmount    float64
	FutureDate        float64
	MalformedCurrency float64
	PaddedMerchant    float64
	// Duplicate is drawn independently of the field-level bands above.
	Duplicate float64
}

type TransactionPolicy struct {
	Volume    VolumePolicy
	MinAmount decimal.Decimal
	MaxAmount decimal.Decimal
	Currency  string
	Defects   TransactionDefectRates
}

type SettlementDefectRates struct {
	AmountMismatch float64
	Failed         float64
	Dropped        float64
	// Orphan is the fraction of the total transaction count emitted as
	// settlements with no internal counterpart.
	Orphan float64
}

type SettlementPolicy struct {
	FeeRate       decimal.Decimal
	FeeFixed      decimal.Decimal
	MismatchDelta decimal.Decimal
	MinOffsetDays int
	MaxOffsetDays int
	Defects       SettlementDefectRates
}

// Params configures a full run.
type Params struct {
	Seed         int64
	Users        int
	Merchants    int
	Start        time.Time
	Days         int
	Workers      int
	Transactions TransactionPolicy
	Settlements  SettlementPolicy
}

func DefaultTransactionPolicy() TransactionPolicy {
	return TransactionPolicy{
		Volume: VolumePolicy{
			WeekdayMin: 100,
			WeekdayMax: 150,
			WeekendMin: 50,
			WeekendMax: 80,
		},
		MinAmount: decimal.NewFromInt(5),
		MaxAmount: decimal.NewFromInt(500),
		Currency:  "CAD",
		Defects: TransactionDefectRates{
			MissingAmount:     0.02,
			MissingUser:       0.02,
			NegativeAmount:    0.01,
			FutureDate:        0.01,
			MalformedCurrency: 0.01,
			PaddedMerchant:    0.01,
			Duplicate:         0.02,
		},
	}
}

func DefaultSettlementPolicy() SettlementPolicy {
	return SettlementPolicy{
		FeeRate:       decimal.RequireFromString("0.02"),
		FeeFixed:      decimal.RequireFromString("0.30"),
		MismatchDelta: decimal.RequireFromString("1.00"),
		MinOffsetDays: 1,
		MaxOffsetDays: 3,
		Defects: SettlementDefectRates{
			AmountMismatch: 0.02,
			Failed:         0.01,
			Dropped:        0.01,
			Orphan:         0.01,
		},
	}
}

func DefaultParams() Params {
	return Params{
		Seed:         42,
		Users:        100,
		Merchants:    20,
		Start:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:         30,
		Workers:      4,
		Transactions: DefaultTransactionPolicy(),
		Settlements:  DefaultSettlementPolicy(),
	}
}

// Validate rejects parameters that cannot produce a consistent run.
// Empty identity pools are caught later, when the first draw needs them.
func (p Params) Validate() error {
	switch {
	case p.Users < 0 || p.Merchants < 0:
		return fmt.Errorf("%w: negative identity count (users=%d merchants=%d)", ErrInvalidParams, p.Users, p.Merchants)
	case p.Days < 0:
		return fmt.Errorf("%w: negative day count %d", ErrInvalidParams, p.Days)
	case p.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidParams, p.Workers)
	case p.Transactions.MaxAmount.LessThan(p.Transactions.MinAmount):
		return fmt.Errorf("%w: amount range [%s,%s]", ErrInvalidParams, p.Transactions.MinAmount, p.Transactions.MaxAmount)
	case p.Settlements.MinOffsetDays < 0 || p.Settlements.MaxOffsetDays < p.Settlements.MinOffsetDays:
		return fmt.Errorf("%w: settlement offset [%d,%d]", ErrInvalidParams, p.Settlements.MinOffsetDays, p.Settlements.MaxOffsetDays)
	case !validRate(p.Transactions.Defects.Duplicate) || !validRate(p.Settlements.Defects.Orphan):
		return fmt.Errorf("%w: duplicate/orphan rates must be in [0,1]", ErrInvalidParams)
	}
	return p.Transactions.Volume.validate()
}

func validRate(r float64) bool {
	return r >= 0 && r <= 1
}
