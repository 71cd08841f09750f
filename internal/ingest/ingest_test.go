package ingest

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datachat-labs/datachat/internal/store"
	"github.com/datachat-labs/datachat/internal/testutil"
)

func newTestCoordinator(t *testing.T) (*Coordinator, *store.Store) {
	t.Helper()
	st, err := store.Open("", testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return New(st, testutil.NewTestLogger(t)), st
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestUploadCSV(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()

	path := writeFile(t, "sales.csv", "id,amount,date\n1,10.5,2024-01-01\n2,20.25,2024-01-02\n")

	tables, err := c.Upload(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales"}, tables)

	snapshot, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	require.Len(t, snapshot[0].Columns, 3)
	assert.Equal(t, "INTEGER", snapshot[0].Columns[0].Type)
	assert.Equal(t, "REAL", snapshot[0].Columns[1].Type)
	assert.Equal(t, "TEXT", snapshot[0].Columns[2].Type)

	rows, err := st.Query(ctx, "SELECT * FROM sales ORDER BY id")
	require.NoError(t, err)
	require.Equal(t, 2, rows.Len())
	assert.Equal(t, int64(1), rows.Records[0]["id"])
	assert.Equal(t, 10.5, rows.Records[0]["amount"])
	assert.Equal(t, "2024-01-01T00:00:00.000Z", rows.Records[0]["date"])
}

func TestUploadTSV(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()

	path := writeFile(t, "metrics.tsv", "name\tvalue\ncpu\t93\n")

	tables, err := c.Upload(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"metrics"}, tables)

	rows, err := st.Query(ctx, "SELECT value FROM metrics")
	require.NoError(t, err)
	require.Equal(t, 1, rows.Len())
	assert.Equal(t, int64(93), rows.Records[0]["value"])
}

func TestUploadUnsupportedType(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()

	path := writeFile(t, "notes.txt", "just some text")

	_, err := c.Upload(ctx, path)
	require.ErrorIs(t, err, ErrUnsupportedFileType)

	snapshot, err := st.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshot, "a rejected upload must leave the store unchanged")
}

func TestUploadEmptyCSV(t *testing.T) {
	c, _ := newTestCoordinator(t)

	path := writeFile(t, "empty.csv", "a,b,c\n")

	_, err := c.Upload(context.Background(), path)
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestUploadMissingFile(t *testing.T) {
	c, _ := newTestCoordinator(t)

	_, err := c.Upload(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestUploadWholeValuedFloatColumn(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()

	// "10.0" has no fractional part, so the column is INTEGER; "10.5" keeps
	// the column REAL.
	path := writeFile(t, "vals.csv", "whole,fractional\n10.0,10.5\n2.0,0.25\n")

	_, err := c.Upload(ctx, path)
	require.NoError(t, err)

	snapshot, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	require.Len(t, snapshot[0].Columns, 2)
	assert.Equal(t, "INTEGER", snapshot[0].Columns[0].Type)
	assert.Equal(t, "REAL", snapshot[0].Columns[1].Type)

	rows, err := st.Query(ctx, "SELECT whole FROM vals ORDER BY whole")
	require.NoError(t, err)
	require.Equal(t, 2, rows.Len())
	assert.Equal(t, int64(2), rows.Records[0]["whole"])
	assert.Equal(t, int64(10), rows.Records[1]["whole"])
}

func TestUploadBooleanColumn(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()

	path := writeFile(t, "flags.csv", "name,active\na,true\nb,false\n")

	_, err := c.Upload(ctx, path)
	require.NoError(t, err)

	rows, err := st.Query(ctx, "SELECT active FROM flags ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows.Records[0]["active"])
	assert.Equal(t, int64(0), rows.Records[1]["active"])
}

func TestUploadSQLiteContainer(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "archive.db")
	seedContainer(t, src, []string{
		"CREATE TABLE orders (id INTEGER PRIMARY KEY, total REAL)",
		"INSERT INTO orders VALUES (1, 9.99), (2, 19.99)",
		"CREATE TABLE customers (id INTEGER, name TEXT)",
		"INSERT INTO customers VALUES (1, 'ada')",
	})

	tables, err := c.Upload(ctx, src)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"orders", "customers"}, tables)

	rows, err := st.Query(ctx, "SELECT total FROM orders ORDER BY id")
	require.NoError(t, err)
	require.Equal(t, 2, rows.Len())
	assert.Equal(t, 9.99, rows.Records[0]["total"])

	rows, err = st.Query(ctx, "SELECT name FROM customers")
	require.NoError(t, err)
	assert.Equal(t, "ada", rows.Records[0]["name"])
}

func TestUploadSQLiteReplacesExistingTable(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, st.Exec(ctx, "CREATE TABLE orders (old_col TEXT)"))
	require.NoError(t, st.Exec(ctx, "INSERT INTO orders VALUES ('stale')"))

	src := filepath.Join(t.TempDir(), "fresh.db")
	seedContainer(t, src, []string{
		"CREATE TABLE orders (id INTEGER, total REAL)",
		"INSERT INTO orders VALUES (1, 5.0)",
	})

	_, err := c.Upload(ctx, src)
	require.NoError(t, err)

	snapshot, err := st.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	require.Len(t, snapshot[0].Columns, 2)
	assert.Equal(t, "id", snapshot[0].Columns[0].Name)

	rows, err := st.Query(ctx, "SELECT * FROM orders")
	require.NoError(t, err)
	require.Equal(t, 1, rows.Len())
	assert.Equal(t, 5.0, rows.Records[0]["total"])
}

func TestUploadSQLiteEmptyTable(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "empty.db")
	seedContainer(t, src, []string{
		"CREATE TABLE hollow (a INTEGER)",
	})

	tables, err := c.Upload(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"hollow"}, tables)

	rows, err := st.Query(ctx, "SELECT * FROM hollow")
	require.NoError(t, err)
	assert.Equal(t, 0, rows.Len())
}

func TestUploadAll(t *testing.T) {
	c, st := newTestCoordinator(t)
	ctx := context.Background()

	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	require.NoError(t, os.WriteFile(good, []byte("a\n1\n"), 0o644))
	bad := filepath.Join(dir, "bad.txt")
	require.NoError(t, os.WriteFile(bad, []byte("nope"), 0o644))

	results := c.UploadAll(ctx, []string{good, bad})
	require.Len(t, results, 2)

	assert.Equal(t, good, results[0].Path)
	assert.NoError(t, results[0].Err)
	assert.Equal(t, []string{"good"}, results[0].Tables)

	assert.Equal(t, bad, results[1].Path)
	assert.True(t, errors.Is(results[1].Err, ErrUnsupportedFileType))

	rows, err := st.Query(ctx, "SELECT * FROM good")
	require.NoError(t, err)
	assert.Equal(t, 1, rows.Len(), "a failing artifact must not abort the batch")
}

func TestTableNameFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/tmp/sales.csv", "sales"},
		{"my data-set.csv", "my_data_set"},
		{"2024 report.tsv", "2024_report"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TableNameFor(tt.path), tt.path)
	}
}

// seedContainer builds a standalone SQLite file for container-import tests.
func seedContainer(t *testing.T, path string, statements []string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
}
