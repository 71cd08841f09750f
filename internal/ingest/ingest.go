// Package ingest normalizes heterogeneous tabular uploads into the session
// store: delimited text files are parsed with per-field type detection and
// loaded through the table builder, while SQLite container files are copied
// table by table from a secondary read-only connection.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/datachat-labs/datachat/internal/store"
)

// ErrUnsupportedFileType is reported for uploads whose extension matches
// neither a delimited-text format nor a SQLite container. It is a user
// notification, never a fatal fault.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// ErrEmptyDataset is reported when a parsed upload yields no records; a
// table cannot be created with zero sampled columns.
var ErrEmptyDataset = errors.New("empty dataset")

var tableNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// sqliteExtensions are the container-database extensions accepted by Upload.
var sqliteExtensions = map[string]bool{
	".sqlite3": true,
	".sqlite":  true,
	".db":      true,
	".s3db":    true,
	".sl3":     true,
}

// Coordinator dispatches uploaded artifacts to the correct parser and loads
// the parsed tables into the shared store.
type Coordinator struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates a coordinator over the given store.
func New(st *store.Store, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{store: st, logger: logger}
}

// Upload ingests one artifact, dispatching on its filename extension.
// It returns the names of the tables created or replaced.
func (c *Coordinator) Upload(ctx context.Context, path string) ([]string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".csv":
		return c.uploadDSV(ctx, path, ',')
	case ext == ".tsv":
		return c.uploadDSV(ctx, path, '\t')
	case sqliteExtensions[ext]:
		return c.importSQLite(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filepath.Base(path))
	}
}

// UploadResult holds the outcome of one artifact in a batch upload.
type UploadResult struct {
	Path   string
	Tables []string
	Err    error
}

// UploadAll ingests a batch of artifacts. File reads run concurrently; the
// store serializes each table transaction internally, so no two inserts
// interleave. A failing artifact does not abort the rest of the batch.
func (c *Coordinator) UploadAll(ctx context.Context, paths []string) []UploadResult {
	results := make([]UploadResult, len(paths))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			tables, err := c.Upload(ctx, path)
			mu.Lock()
			results[i] = UploadResult{Path: path, Tables: tables, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// TableNameFor derives the table name for a delimited-text upload: the file
// base name without extension, non-alphanumerics replaced by underscores.
func TableNameFor(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return tableNameSanitizer.ReplaceAllString(base, "_")
}
