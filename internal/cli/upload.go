package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newUploadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upload FILE...",
		Short: "Load CSV, TSV, or SQLite files into the session database",
		Long: `Load one or more data files into the session database.

CSV and TSV files become one table each, named after the file, with column
types inferred from the first row. SQLite files are copied table by table,
replacing any same-named tables. Use --database to keep the data on disk;
an in-memory session is discarded when the command exits.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, cleanup, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if getConfig().Database == "" {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Warning: no --database set; uploaded data is discarded when the command exits")
			}

			results := sess.UploadAll(cmd.Context(), args)
			failures := 0
			for _, res := range results {
				if res.Err != nil {
					failures++
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %s: %v\n", res.Path, res.Err)
					continue
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %s: %s\n", res.Path, strings.Join(res.Tables, ", "))
			}
			if failures == len(results) {
				return fmt.Errorf("no files imported")
			}
			return nil
		},
	}
}
