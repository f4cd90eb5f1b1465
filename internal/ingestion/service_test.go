package ingestion

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/openledger/generator/internal/export"
	"github.com/openledger/generator/internal/generator"
	"github.com/openledger/generator/internal/metrics"
	"github.com/openledger/generator/internal/repository"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := repository.InitDB(filepath.Join(t.TempDir(), "warehouse.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func writeSmallDataset(t *testing.T) (string, export.Manifest) {
	t.Helper()
	p := generator.DefaultParams()
	p.Users = 15
	p.Merchants = 5
	p.Days = 4
	p.Start = time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

	g, err := generator.New(p, nil)
	require.NoError(t, err)
	ds, err := g.Run(context.Background())
	require.NoError(t, err)

	dir := t.TempDir()
	manifest, err := export.WriteDataset(dir, ds)
	require.NoError(t, err)
	return dir, manifest
}

func TestLoadDirLoadsEveryTable(t *testing.T) {
	db := setupTestDB(t)
	dir, manifest := writeSmallDataset(t)
	reg := prometheus.NewRegistry()
	svc := NewService(db, metrics.NewLoaderMetrics(reg), nil)
	ctx := context.Background()

	results, err := svc.LoadDir(ctx, dir)
	require.NoError(t, err)
	require.Len(t, results, len(manifest))

	for i, res := range results {
		assert.Equal(t, manifest[i].Name, res.File)
		assert.Equal(t, manifest[i].Rows, res.Loaded, res.Table)
		assert.Zero(t, res.Rejected, res.Table)

		n, err := repository.CountRows(ctx, db, res.Table)
		require.NoError(t, err)
		assert.Equal(t, manifest[i].Rows, n, res.Table)
	}
	series, err := countSeries(reg, "openledger_load_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, len(Specs), series)

	// A second load replaces rather than appends.
	again, err := svc.LoadDir(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, results, again)
	n, err := repository.CountRows(ctx, db, repository.TableTransactions)
	require.NoError(t, err)
	assert.Equal(t, manifest[2].Rows, n)
}

func TestLoadTableCountsRejectedRows(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	spec := specFor(t, repository.TableSettlements)
	path := filepath.Join(dir, spec.File)

	content := strings.Join([]string{
		strings.Join(spec.ColumnNames(), ","),
		"stl_1,txn_1,merchant_1,10.00,0.50,9.50,CAD,2025-01-03,PRC-AAAA,settled,",
		"stl_2,txn_2,merchant_1,ten,0.50,9.50,CAD,2025-01-03,PRC-BBBB,settled,",
		"stl_1,txn_3,merchant_1,10.00,0.50,9.50,CAD,2025-01-03,PRC-CCCC,settled,",
		"stl_4,txn_4,merchant_1,,0.30,-0.30,CAD,2025-01-04,PRC-DDDD,failed,",
		"stl_5,txn_5",
	}, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	reg := prometheus.NewRegistry()
	svc := NewService(db, metrics.NewLoaderMetrics(reg), nil)
	res, err := svc.LoadTable(context.Background(), path, spec)
	require.NoError(t, err)
	assert.Equal(t, LoadResult{Table: repository.TableSettlements, File: spec.File, Loaded: 2, Rejected: 3}, res)

	settlements, err := repository.NewSettlementRepo(db).GetByTransactionID(context.Background(), "txn_4")
	require.NoError(t, err)
	require.Len(t, settlements, 1)
	assert.False(t, settlements[0].GrossAmount.Valid)
	assert.Equal(t, "-0.3", settlements[0].NetAmount.String())
}

func TestLoadDirContinuesPastFailedTables(t *testing.T) {
	db := setupTestDB(t)
	dir, _ := writeSmallDataset(t)
	require.NoError(t, os.Remove(filepath.Join(dir, export.MerchantsFile)))
	require.NoError(t, os.WriteFile(filepath.Join(dir, export.LedgerEntriesFile), []byte("entry_id,amount\n"), 0o644))

	reg := prometheus.NewRegistry()
	svc := NewService(db, metrics.NewLoaderMetrics(reg), nil)
	results, err := svc.LoadDir(context.Background(), dir)
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), repository.TableMerchants)
	assert.Contains(t, errs[1].Error(), repository.TableLedgerEntries)

	require.Len(t, results, 3)
	assert.Equal(t, repository.TableUsers, results[0].Table)
	assert.Equal(t, repository.TableTransactions, results[1].Table)
	assert.Equal(t, repository.TableSettlements, results[2].Table)
	failures, err := countSeries(reg, "openledger_load_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 2, failures)
}

func TestLoadDirStopsOnCancelledContext(t *testing.T) {
	db := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := NewService(db, nil, nil).LoadDir(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

func countSeries(reg *prometheus.Registry, name string) (int, error) {
	mfs, err := reg.Gather()
	if err != nil {
		return 0, err
	}
	for _, mf := range mfs {
		if mf.GetName() == name {
			return len(mf.GetMetric()), nil
		}
	}
	return 0, nil
}
