package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// datePatterns guard time.Parse attempts so that plain numbers and free
// text never pay the parse cost. Grounded in the formats the rest of the
// pipeline round-trips: ISO-8601 plus slash dates.
var datePatterns = []struct {
	pattern *regexp.Regexp
	formats []string
}{
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})$`),
		[]string{time.RFC3339, time.RFC3339Nano},
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02T15:04:05", "2006-01-02T15:04:05.000"},
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}(\.\d+)?$`),
		[]string{"2006-01-02 15:04:05", "2006-01-02 15:04:05.000"},
	},
	{
		regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`),
		[]string{"2006-01-02"},
	},
	{
		regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{4}$`),
		[]string{"1/2/2006", "01/02/2006"},
	},
}

// autoType converts one raw field into its detected scalar kind: integer,
// real, boolean, datetime, or text. Empty fields become nil.
func autoType(field string) any {
	trimmed := strings.TrimSpace(field)
	if trimmed == "" {
		return nil
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return true
	case "false":
		return false
	}

	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}

	for _, dp := range datePatterns {
		if !dp.pattern.MatchString(trimmed) {
			continue
		}
		for _, format := range dp.formats {
			if t, err := time.Parse(format, trimmed); err == nil {
				return t
			}
		}
	}

	return field
}

// parseDSV reads a delimited-text stream into auto-typed records. The
// returned column list preserves header order.
func parseDSV(r io.Reader, comma rune) ([]string, []Row, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	var records []Row
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row: %w", err)
		}

		record := make(Row, len(header))
		for i := range header {
			if i < len(row) {
				record[i] = autoType(row[i])
			}
		}
		records = append(records, record)
	}
	return header, records, nil
}

// uploadDSV parses a delimited-text file and loads it through the table
// builder's type-inferring insert path.
func (c *Coordinator) uploadDSV(ctx context.Context, path string, comma rune) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	cols, records, err := parseDSV(f, comma)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	table := TableNameFor(path)
	if err := c.CreateAndInsert(ctx, table, cols, records); err != nil {
		return nil, err
	}

	c.logger.Debug("imported delimited file", "path", path, "table", table, "rows", len(records))
	return []string{table}, nil
}
