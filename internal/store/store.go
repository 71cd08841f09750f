// Package store wraps the shared SQLite database that holds every uploaded
// table for a session. All statements and transactions are serialized behind
// a single mutex: SQLite offers no row-level isolation here, so one
// transaction must fully commit or roll back before the next begins.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite" // sqlite driver
)

// Record is one result row keyed by column name.
type Record map[string]any

// Rows holds a fully materialized result set. Columns preserves the
// column order reported by the engine, which Record alone cannot.
type Rows struct {
	Columns []string
	Records []Record
}

// Len returns the number of records.
func (r *Rows) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Records)
}

// Store is the shared mutable relational store for one session.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *slog.Logger
}

// Open opens the session store. An empty path opens an in-memory database.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if path == "" {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases coherent and matches the
	// one-transaction-at-a-time discipline.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Exec executes a statement that returns no rows.
func (s *Store) Exec(ctx context.Context, query string, args ...any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return nil
}

// Query executes a statement and materializes every row as a field-keyed
// record, preserving column order.
func (s *Store) Query(ctx context.Context, query string) (*Rows, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked(ctx, query)
}

func (s *Store) queryLocked(ctx context.Context, query string) (*Rows, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanRows(rows)
}

// Transaction runs fn inside a single transaction while holding the store
// lock. A non-nil error from fn rolls the transaction back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// scanRows converts sql.Rows into a materialized Rows value.
func scanRows(rows *sql.Rows) (*Rows, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &Rows{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := make(Record, len(cols))
		for i, col := range cols {
			val := values[i]
			// Convert []byte to string for readability
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			record[col] = val
		}
		result.Records = append(result.Records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
