package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// BulkResult reports the outcome of a table load.
type BulkResult struct {
	Inserted int
	Rejected int
}

// RowError carries the position and cause of a rejected row.
type RowError struct {
	Index int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Index, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// BulkReplace empties table and inserts rows in a single transaction.
// A row the database refuses is reported through onReject and skipped;
// only table-level failures abort and roll back the load.
func BulkReplace(ctx context.Context, db *sql.DB, table string, columns []string, rows [][]any, onReject func(*RowError)) (BulkResult, error) {
	var res BulkResult
	if !knownTable(table) {
		return res, fmt.Errorf("unknown table %q", table)
	}

	sqlTx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return res, fmt.Errorf("truncate %s: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",")
	stmt, err := sqlTx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ", "), placeholders,
	))
	if err != nil {
		return res, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			res.Rejected++
			if onReject != nil {
				onReject(&RowError{Index: i, Err: err})
			}
			continue
		}
		res.Inserted++
	}

	if err := sqlTx.Commit(); err != nil {
		return BulkResult{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

// CountRows returns the number of rows in table.
func CountRows(ctx context.Context, db *sql.DB, table string) (int, error) {
	if !knownTable(table) {
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var count int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&count)
	return count, err
}
