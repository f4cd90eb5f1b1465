package generator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/openledger/generator/internal/domain"
	"github.com/openledger/generator/internal/logger"
)

// orphanStream is the stream number reserved for orphan settlements; day
// streams are numbered from zero.
const orphanStream = 1 << 62

// Dataset is the complete output of a run.
type Dataset struct {
	Users         []domain.User
	Merchants     []domain.Merchant
	Transactions  []domain.Transaction
	LedgerEntries []domain.LedgerEntry
	Settlements   []domain.Settlement
}

type dayBatch struct {
	transactions []domain.Transaction
	entries      []domain.LedgerEntry
	settlements  []domain.Settlement
}

type Generator struct {
	params Params
	log    *logger.Logger
}

func New(params Params, log *logger.Logger) (*Generator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Generator{params: params, log: log}, nil
}

// Run generates the full dataset. Days are produced concurrently, each from
// its own sub-seeded stream, and stitched back in calendar order, so the
// result depends only on the seed and parameters.
func (g *Generator) Run(ctx context.Context) (*Dataset, error) {
	p := g.params
	started := time.Now()
	start := dateOf(p.Start.UTC())

	idRng := NewRand(p.Seed)
	users := GenerateUsers(idRng, p.Users, start)
	merchants := GenerateMerchants(idRng, p.Merchants)

	ds := &Dataset{Users: users, Merchants: merchants}
	if p.Days == 0 {
		g.log.Warn(ctx, "day count is zero; writing identities only")
		return ds, nil
	}

	synth, err := NewSynthesizer(users, merchants, p.Transactions)
	if err != nil {
		return nil, fmt.Errorf("new synthesizer: %w", err)
	}
	sim, err := NewSettlementSimulator(p.Settlements)
	if err != nil {
		return nil, fmt.Errorf("new settlement simulator: %w", err)
	}
	g.log.Debug(g.log.WithFields(ctx, map[string]any{
		"transaction_defects": synth.defects.Names(),
		"settlement_defects":  sim.defects.Names(),
	}), "defect tables ready")

	batches := make([]dayBatch, p.Days)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(p.Workers)
	for i := 0; i < p.Days; i++ {
		i := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			rng := NewRand(DeriveSeed(p.Seed, uint64(i)))
			date := start.AddDate(0, 0, i)
			txns, entries := synth.GenerateTransactions(rng, date)
			batches[i] = dayBatch{
				transactions: txns,
				entries:      entries,
				settlements:  sim.GenerateSettlements(rng, txns),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("generate days: %w", err)
	}

	known := make(map[string]struct{})
	for _, b := range batches {
		ds.Transactions = append(ds.Transactions, b.transactions...)
		ds.LedgerEntries = append(ds.LedgerEntries, b.entries...)
		ds.Settlements = append(ds.Settlements, b.settlements...)
		for _, t := range b.transactions {
			known[t.ID] = struct{}{}
		}
	}

	orphans, err := sim.GenerateOrphans(NewRand(DeriveSeed(p.Seed, orphanStream)), OrphanSpec{
		Count:     OrphanCount(len(ds.Transactions), p.Settlements.Defects.Orphan),
		Merchants: merchants,
		Start:     start,
		Days:      p.Days,
		MinAmount: p.Transactions.MinAmount,
		MaxAmount: p.Transactions.MaxAmount,
		Currency:  p.Transactions.Currency,
		Known:     known,
	})
	if err != nil {
		return nil, fmt.Errorf("generate orphans: %w", err)
	}
	ds.Settlements = append(ds.Settlements, orphans...)

	logCtx := g.log.WithFields(ctx, map[string]any{
		"seed":           p.Seed,
		"days":           p.Days,
		"users":          len(ds.Users),
		"merchants":      len(ds.Merchants),
		"transactions":   len(ds.Transactions),
		"ledger_entries": len(ds.LedgerEntries),
		"settlements":    len(ds.Settlements),
		"orphans":        len(orphans),
		"elapsed_ms":     time.Since(started).Milliseconds(),
	})
	g.log.Info(logCtx, "dataset generated")
	return ds, nil
}
