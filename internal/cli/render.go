package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/datachat-labs/datachat/internal/store"
)

// renderRows writes a result set in the requested format: table (default),
// json, csv, or markdown.
func renderRows(w io.Writer, rows *store.Rows, format string) error {
	switch format {
	case "json":
		return renderJSON(w, rows)
	case "csv":
		return renderCSV(w, rows)
	case "md", "markdown":
		return renderMarkdown(w, rows)
	default:
		return renderTable(w, rows)
	}
}

func renderTable(w io.Writer, rows *store.Rows) error {
	if rows.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(rows.Columns))
	for i, col := range rows.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, rec := range rows.Records {
		row := make(table.Row, len(rows.Columns))
		for i, col := range rows.Columns {
			row[i] = formatValue(rec[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", rows.Len())
	return nil
}

func renderJSON(w io.Writer, rows *store.Rows) error {
	out := make([]map[string]any, rows.Len())
	for i, rec := range rows.Records {
		out[i] = rec
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderCSV(w io.Writer, rows *store.Rows) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rows.Columns); err != nil {
		return err
	}
	values := make([]string, len(rows.Columns))
	for _, rec := range rows.Records {
		for i, col := range rows.Columns {
			values[i] = formatValue(rec[col])
		}
		if err := cw.Write(values); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderMarkdown(w io.Writer, rows *store.Rows) error {
	if rows.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(rows.Columns, " | "))
	seps := make([]string, len(rows.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(seps, " | "))

	for _, rec := range rows.Records {
		values := make([]string, len(rows.Columns))
		for i, col := range rows.Columns {
			values[i] = formatValue(rec[col])
		}
		_, _ = fmt.Fprintf(w, "| %s |\n", strings.Join(values, " | "))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
