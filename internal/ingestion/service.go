package ingestion

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"github.com/openledger/generator/internal/logger"
	"github.com/openledger/generator/internal/metrics"
	"github.com/openledger/generator/internal/repository"
)

// LoadResult is returned for every table of a load.
type LoadResult struct {
	Table    string `json:"table"`
	File     string `json:"file"`
	Loaded   int    `json:"loaded"`
	Rejected int    `json:"rejected"`
}

// Service loads generated dataset files into the warehouse.
type Service struct {
	db      *sql.DB
	metrics *metrics.LoaderMetrics
	log     *logger.Logger
}

// NewService creates a new loader. metrics may be nil.
func NewService(db *sql.DB, m *metrics.LoaderMetrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{db: db, metrics: m, log: log}
}

// LoadDir replaces every warehouse table with the matching file in dir.
// A failing table does not stop the others; all table errors are returned
// together once every table has been attempted.
func (s *Service) LoadDir(ctx context.Context, dir string) ([]LoadResult, error) {
	var (
		results []LoadResult
		errs    error
	)
	for _, spec := range Specs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.LoadTable(ctx, filepath.Join(dir, spec.File), spec)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("load %s: %w", spec.Table, err))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// LoadTable truncates spec.Table and loads path into it. Rows that fail to
// parse or insert are counted as rejected.
func (s *Service) LoadTable(ctx context.Context, path string, spec TableSpec) (LoadResult, error) {
	started := time.Now()
	ctx = s.log.WithTable(ctx, spec.Table)
	res := LoadResult{Table: spec.Table, File: filepath.Base(path)}

	rows, rejects, err := s.readFile(path, spec)
	if err != nil {
		s.metrics.IncFailure(spec.Table)
		s.log.Error(ctx, "read dataset file", err)
		return res, err
	}
	for _, rj := range rejects {
		s.log.Warn(s.log.WithFields(ctx, map[string]any{"line": rj.Line, "reason": rj.Err.Error()}), "row rejected at parse")
	}

	bulk, err := repository.BulkReplace(ctx, s.db, spec.Table, spec.ColumnNames(), rows, func(e *repository.RowError) {
		s.log.Warn(s.log.WithFields(ctx, map[string]any{"row": e.Index, "reason": e.Err.Error()}), "row rejected by warehouse")
	})
	if err != nil {
		s.metrics.IncFailure(spec.Table)
		s.log.Error(ctx, "bulk load", err)
		return res, err
	}

	res.Loaded = bulk.Inserted
	res.Rejected = bulk.Rejected + len(rejects)
	s.metrics.AddRows(spec.Table, metrics.OutcomeLoaded, res.Loaded)
	s.metrics.AddRows(spec.Table, metrics.OutcomeRejected, res.Rejected)
	s.metrics.ObserveDuration(spec.Table, time.Since(started))

	s.log.Info(s.log.WithFields(ctx, map[string]any{
		"loaded":   res.Loaded,
		"rejected": res.Rejected,
	}), "table loaded")
	return res, nil
}

func (s *Service) readFile(path string, spec TableSpec) (rows [][]any, rejects []RowReject, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	rows, rejects, err = ParseTable(f, spec)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return rows, rejects, nil
}
