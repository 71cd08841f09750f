package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Column describes one column of a user table as reported by the engine.
type Column struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	NotNull    bool    `json:"notnull"`
	Default    *string `json:"dflt_value"`
	PrimaryKey bool    `json:"pk"`
}

// Table describes one user table: its name, the create statement that
// produced it, and its live column list.
type Table struct {
	Name      string   `json:"name"`
	CreateSQL string   `json:"sql"`
	Columns   []Column `json:"columns"`
}

// Snapshot reads the current set of user tables and their columns. It is
// side-effect free and always reads fresh metadata: ingestion can change
// the schema between calls, so callers must not cache the result across a
// mutation boundary without fingerprinting.
func (s *Store) Snapshot(ctx context.Context) ([]Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.queryLocked(ctx, `SELECT name, sql FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to read table list: %w", err)
	}

	tables := make([]Table, 0, rows.Len())
	for _, rec := range rows.Records {
		t := Table{
			Name:      fmt.Sprintf("%v", rec["name"]),
			CreateSQL: fmt.Sprintf("%v", rec["sql"]),
		}

		info, err := s.queryLocked(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(t.Name)))
		if err != nil {
			return nil, fmt.Errorf("failed to read columns for %s: %w", t.Name, err)
		}
		for _, col := range info.Records {
			c := Column{
				Name:       fmt.Sprintf("%v", col["name"]),
				Type:       fmt.Sprintf("%v", col["type"]),
				NotNull:    asInt64(col["notnull"]) != 0,
				PrimaryKey: asInt64(col["pk"]) != 0,
			}
			if col["dflt_value"] != nil {
				v := fmt.Sprintf("%v", col["dflt_value"])
				c.Default = &v
			}
			t.Columns = append(t.Columns, c)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// Fingerprint returns a stable serialization of the current schema. Only
// equality is ever observed, so the encoded form is an implementation
// detail; JSON of the ordered snapshot is deterministic enough.
func (s *Store) Fingerprint(ctx context.Context) (string, error) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return FingerprintOf(snapshot), nil
}

// FingerprintOf serializes an already computed snapshot.
func FingerprintOf(snapshot []Table) string {
	b, err := json.Marshal(snapshot)
	if err != nil {
		// Snapshot contains only plain strings and bools; this cannot fail.
		return ""
	}
	return string(b)
}

// CreateStatements returns every table's create statement joined by blank
// lines, the form the generation prompts embed.
func CreateStatements(snapshot []Table) string {
	out := ""
	for i, t := range snapshot {
		if i > 0 {
			out += "\n\n"
		}
		out += t.CreateSQL
	}
	return out
}

// quoteIdent quotes an identifier for SQL, doubling embedded quotes.
// Container imports can bring in table names with arbitrary characters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
