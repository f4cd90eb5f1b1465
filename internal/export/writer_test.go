package export

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openledger/generator/internal/domain"
	"github.com/openledger/generator/internal/generator"
)

func generate(t *testing.T, seed int64) *generator.Dataset {
	t.Helper()
	p := generator.DefaultParams()
	p.Seed = seed
	p.Days = 7
	g, err := generator.New(p, nil)
	require.NoError(t, err)
	ds, err := g.Run(context.Background())
	require.NoError(t, err)
	return ds
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteDatasetHeadersAndCounts(t *testing.T) {
	ds := generate(t, 42)
	dir := filepath.Join(t.TempDir(), "raw")

	manifest, err := WriteDataset(dir, ds)
	require.NoError(t, err)
	require.Len(t, manifest, 5)

	expect := map[string]struct {
		columns []string
		rows    int
	}{
		UsersFile:         {UserColumns, len(ds.Users)},
		MerchantsFile:     {MerchantColumns, len(ds.Merchants)},
		TransactionsFile:  {TransactionColumns, len(ds.Transactions)},
		LedgerEntriesFile: {LedgerColumns, len(ds.LedgerEntries)},
		SettlementsFile:   {SettlementColumns, len(ds.Settlements)},
	}
	for _, fi := range manifest {
		want := expect[fi.Name]
		records := readCSV(t, filepath.Join(dir, fi.Name))
		assert.Equal(t, want.columns, records[0], fi.Name)
		assert.Len(t, records, want.rows+1, fi.Name)
		assert.Equal(t, want.rows, fi.Rows)
	}

	leftovers, err := filepath.Glob(filepath.Join(dir, ".*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestWriteDatasetIsByteIdenticalForSameSeed(t *testing.T) {
	dirA, dirB, dirC := t.TempDir(), t.TempDir(), t.TempDir()
	_, err := WriteDataset(dirA, generate(t, 42))
	require.NoError(t, err)
	_, err = WriteDataset(dirB, generate(t, 42))
	require.NoError(t, err)
	_, err = WriteDataset(dirC, generate(t, 7))
	require.NoError(t, err)

	for _, name := range []string{UsersFile, MerchantsFile, TransactionsFile, LedgerEntriesFile, SettlementsFile} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(dirB, name))
		require.NoError(t, err)
		c, err := os.ReadFile(filepath.Join(dirC, name))
		require.NoError(t, err)
		assert.Equal(t, a, b, name)
		assert.NotEqual(t, a, c, name)
	}
}

func TestNullsSerializeAsEmptyFields(t *testing.T) {
	at := time.Date(2025, 1, 3, 7, 15, 0, 0, time.UTC)
	ds := &generator.Dataset{
		Transactions: []domain.Transaction{{
			ID: "txn_1", MerchantID: "merchant_1", Currency: "CAD",
			Type: domain.TypePurchase, EventTime: at, Status: domain.StatusCompleted,
		}},
		Settlements: []domain.Settlement{{
			ID: "stl_1", TransactionID: "txn_1", MerchantID: "merchant_1",
			FeeAmount: decimal.RequireFromString("0.3"), NetAmount: decimal.RequireFromString("-0.3"),
			Currency: "CAD", SettlementDate: at.AddDate(0, 0, 2), ProcessorReference: "PRC-X",
			Status: domain.SettlementSettled,
		}},
	}
	dir := t.TempDir()
	_, err := WriteDataset(dir, ds)
	require.NoError(t, err)

	txns := readCSV(t, filepath.Join(dir, TransactionsFile))
	assert.Equal(t, []string{"txn_1", "", "merchant_1", "", "CAD", "purchase", "2025-01-03T07:15:00", "completed"}, txns[1])

	stls := readCSV(t, filepath.Join(dir, SettlementsFile))
	assert.Equal(t, []string{"stl_1", "txn_1", "merchant_1", "", "0.30", "-0.30", "CAD", "2025-01-05", "PRC-X", "settled", ""}, stls[1])
}

func TestWriteDatasetUnwritableDestination(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := WriteDataset(filepath.Join(blocker, "raw"), &generator.Dataset{})
	assert.Error(t, err)
}
