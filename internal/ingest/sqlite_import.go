package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// importSQLite opens an uploaded container database read-only and copies
// every table into the primary store. An existing table with the same name
// is dropped and recreated from the source's exact create statement; rows
// are copied in the source's own column order with no type inference.
func (c *Coordinator) importSQLite(ctx context.Context, path string) ([]string, error) {
	src, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()
	src.SetMaxOpenConns(1)

	if err := src.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	tables, err := sourceTables(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate tables in %s: %w", path, err)
	}

	var copied []string
	for _, t := range tables {
		if err := c.copyTable(ctx, src, t.name, t.createSQL); err != nil {
			return copied, err
		}
		copied = append(copied, t.name)
		c.logger.Debug("imported container table", "path", path, "table", t.name)
	}
	return copied, nil
}

type sourceTable struct {
	name      string
	createSQL string
}

func sourceTables(ctx context.Context, src *sql.DB) ([]sourceTable, error) {
	rows, err := src.QueryContext(ctx, `SELECT name, sql FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []sourceTable
	for rows.Next() {
		var t sourceTable
		if err := rows.Scan(&t.name, &t.createSQL); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// copyTable replaces one table in the primary store with the source's
// definition and contents. Drop, create, and bulk insert all run inside one
// serialized transaction against the shared store.
func (c *Coordinator) copyTable(ctx context.Context, src *sql.DB, name, createSQL string) error {
	srcRows, err := src.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM "%s"`, name))
	if err != nil {
		return fmt.Errorf("failed to read source table %s: %w", name, err)
	}
	defer func() { _ = srcRows.Close() }()

	cols, err := srcRows.Columns()
	if err != nil {
		return fmt.Errorf("failed to read source columns for %s: %w", name, err)
	}

	var records []Row
	for srcRows.Next() {
		values := make(Row, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := srcRows.Scan(valuePtrs...); err != nil {
			return fmt.Errorf("failed to scan source row from %s: %w", name, err)
		}
		records = append(records, values)
	}
	if err := srcRows.Err(); err != nil {
		return fmt.Errorf("failed to read source table %s: %w", name, err)
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = fmt.Sprintf(`"%s"`, col)
		marks[i] = "?"
	}
	insertSQL := fmt.Sprintf(`INSERT INTO "%s" (%s) VALUES (%s)`,
		name, strings.Join(quoted, ", "), strings.Join(marks, ", "))

	return c.store.Transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS "%s"`, name)); err != nil {
			return fmt.Errorf("failed to drop %s: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, createSQL); err != nil {
			return fmt.Errorf("failed to recreate %s: %w", name, err)
		}
		if len(records) == 0 {
			return nil
		}

		stmt, err := tx.PrepareContext(ctx, insertSQL)
		if err != nil {
			return fmt.Errorf("failed to prepare insert for %s: %w", name, err)
		}
		defer func() { _ = stmt.Close() }()

		for _, record := range records {
			if _, err := stmt.ExecContext(ctx, record...); err != nil {
				return fmt.Errorf("failed to copy row into %s: %w", name, err)
			}
		}
		return nil
	})
}
