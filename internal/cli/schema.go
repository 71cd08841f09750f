package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/datachat-labs/datachat/internal/store"
)

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the tables and columns in the session database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, cleanup, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			snapshot, err := sess.Schema(cmd.Context())
			if err != nil {
				return err
			}
			renderSchema(cmd.OutOrStdout(), snapshot)
			return nil
		},
	}
}

// renderSchema prints each table's create statement and a column summary.
func renderSchema(w io.Writer, snapshot []store.Table) {
	if len(snapshot) == 0 {
		_, _ = fmt.Fprintln(w, "No tables. Upload a CSV, TSV, or SQLite file first.")
		return
	}

	for _, tbl := range snapshot {
		_, _ = fmt.Fprintf(w, "%s\n\n", tbl.CreateSQL)

		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Column Name", "Type", "Not Null", "Default Value", "Primary Key"})
		for _, col := range tbl.Columns {
			def := "NULL"
			if col.Default != nil {
				def = *col.Default
			}
			t.AppendRow(table.Row{col.Name, col.Type, yesNo(col.NotNull), def, yesNo(col.PrimaryKey)})
		}
		t.Render()
		_, _ = fmt.Fprintln(w)
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
