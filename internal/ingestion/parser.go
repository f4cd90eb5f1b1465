package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openledger/generator/internal/domain"
	"github.com/openledger/generator/internal/export"
	"github.com/openledger/generator/internal/repository"
)

// Kind is the warehouse type a CSV field is converted to.
type Kind int

const (
	KindText Kind = iota
	KindDecimal
	KindFloat
	KindTimestamp
	KindDate
)

type Column struct {
	Name string
	Kind Kind
}

// TableSpec binds a generated file to its warehouse table.
type TableSpec struct {
	Table   string
	File    string
	Columns []Column
}

func columns(names []string, kinds map[string]Kind) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Kind: kinds[n]}
	}
	return cols
}

// Specs lists every table in load order.
var Specs = []TableSpec{
	{repository.TableUsers, export.UsersFile, columns(export.UserColumns, map[string]Kind{
		"created_at": KindTimestamp, "risk_score": KindFloat,
	})},
	{repository.TableMerchants, export.MerchantsFile, columns(export.MerchantColumns, map[string]Kind{
		"risk_score": KindFloat,
	})},
	{repository.TableTransactions, export.TransactionsFile, columns(export.TransactionColumns, map[string]Kind{
		"amount": KindDecimal, "event_time": KindTimestamp,
	})},
	{repository.TableLedgerEntries, export.LedgerEntriesFile, columns(export.LedgerColumns, map[string]Kind{
		"amount": KindDecimal, "event_time": KindTimestamp,
	})},
	{repository.TableSettlements, export.SettlementsFile, columns(export.SettlementColumns, map[string]Kind{
		"gross_amount": KindDecimal, "fee_amount": KindDecimal, "net_amount": KindDecimal, "settlement_date": KindDate,
	})},
}

func (s TableSpec) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// RowReject describes a line that could not be converted.
type RowReject struct {
	Line int
	Err  error
}

// ParseTable reads a generated CSV file. The header must match the columns
// exactly; a bad header is an error for the whole file. Lines that fail to
// parse or convert are returned as rejects and skipped. Empty fields become
// SQL NULL.
func ParseTable(r io.Reader, spec TableSpec) ([][]any, []RowReject, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) != len(spec.Columns) {
		return nil, nil, fmt.Errorf("expected %d columns, got %d", len(spec.Columns), len(header))
	}
	for i, c := range spec.Columns {
		if header[i] != c.Name {
			return nil, nil, fmt.Errorf("column %d: expected %q, got %q", i+1, c.Name, header[i])
		}
	}

	var (
		rows    [][]any
		rejects []RowReject
	)
	lineNum := 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				rejects = append(rejects, RowReject{Line: perr.Line, Err: err})
				continue
			}
			return nil, nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) != len(spec.Columns) {
			rejects = append(rejects, RowReject{Line: line, Err: fmt.Errorf("expected %d fields, got %d", len(spec.Columns), len(record))})
			continue
		}

		row, err := convertRow(record, spec.Columns)
		if err != nil {
			rejects = append(rejects, RowReject{Line: line, Err: err})
			continue
		}
		rows = append(rows, row)
	}
	return rows, rejects, nil
}

func convertRow(record []string, cols []Column) ([]any, error) {
	row := make([]any, len(cols))
	for i, c := range cols {
		v, err := convertField(record[i], c.Kind)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		row[i] = v
	}
	return row, nil
}

func convertField(raw string, kind Kind) (any, error) {
	if raw == "" {
		return nil, nil
	}
	switch kind {
	case KindDecimal:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindFloat:
		return strconv.ParseFloat(raw, 64)
	case KindTimestamp:
		if _, err := time.Parse(domain.TimestampLayout, raw); err != nil {
			return nil, err
		}
	case KindDate:
		if _, err := time.Parse(domain.DateLayout, raw); err != nil {
			return nil, err
		}
	}
	return raw, nil
}
