package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"
)

// Row is one parsed record with values aligned to a column list.
type Row []any

// isoMilli matches the wire form dates take in the store: ISO-8601 with
// millisecond precision in UTC.
const isoMilli = "2006-01-02T15:04:05.000Z"

// inferType maps a sampled value to a SQLite column type. Booleans become
// INTEGER (SQLite has no boolean), numbers with no fractional part are
// INTEGER even when written as "10.0", and date/time values are stored as
// TEXT.
func inferType(sample any) string {
	switch v := sample.(type) {
	case int64:
		return "INTEGER"
	case bool:
		return "INTEGER"
	case float64:
		if v == math.Trunc(v) {
			return "INTEGER"
		}
		return "REAL"
	case time.Time:
		return "TEXT"
	default:
		return "TEXT"
	}
}

// bindValue converts a parsed value to its driver representation. Dates are
// coerced to ISO-8601 strings at insert time; everything else passes
// through unchanged, so a later row whose value does not fit the inferred
// column fails the transaction rather than being silently re-typed.
func bindValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return val.UTC().Format(isoMilli)
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}

// CreateAndInsert creates the table if needed, inferring each column's type
// from the first record only, then bulk-inserts every record inside one
// transaction. Partial inserts never persist: any failure rolls the whole
// transaction back.
func (c *Coordinator) CreateAndInsert(ctx context.Context, table string, cols []string, records []Row) error {
	if len(records) == 0 || len(cols) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyDataset, table)
	}

	defs := make([]string, len(cols))
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, col := range cols {
		defs[i] = fmt.Sprintf("[%s] %s", col, inferType(records[0][i]))
		quoted[i] = fmt.Sprintf("[%s]", col)
		marks[i] = "?"
	}

	createSQL := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
	insertSQL := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(quoted, ", "), strings.Join(marks, ", "))

	return c.store.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table, err)
		}

		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare insert for %s: %w", table, err)
		}
		defer func() { _ = stmt.Close() }()

		for _, record := range records {
			binds := make([]any, len(cols))
			for i := range cols {
				binds[i] = bindValue(record[i])
			}
			if _, err := stmt.ExecContext(ctx, binds...); err != nil {
				return fmt.Errorf("failed to insert into %s: %w", table, err)
			}
		}
		return nil
	})
}
