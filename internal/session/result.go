package session

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/datachat-labs/datachat/internal/store"
)

// previewLimit caps the tabulated view of a result.
const previewLimit = 100

// Result is the current query result: the question that produced it, the
// generated query text, and the full row set. Derived actions only read it;
// a new successful Ask replaces it atomically.
type Result struct {
	Question string
	SQL      string
	Rows     *store.Rows
}

// Current returns the current result, or nil when no query has succeeded
// yet. Derived actions require a non-nil, non-empty result.
func (s *Session) Current() *Result { return s.result }

// Preview returns the first rows of the result for tabulated display,
// capped at previewLimit records.
func (r *Result) Preview() *store.Rows {
	if r.Rows.Len() <= previewLimit {
		return r.Rows
	}
	return &store.Rows{Columns: r.Rows.Columns, Records: r.Rows.Records[:previewLimit]}
}

// ExportCSV writes the full row set as comma-separated text, header first.
// The header order is the result's column order.
func (r *Result) ExportCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Rows.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	fields := make([]string, len(r.Rows.Columns))
	for _, rec := range r.Rows.Records {
		for i, col := range r.Rows.Columns {
			fields[i] = exportValue(rec[col])
		}
		if err := cw.Write(fields); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}
