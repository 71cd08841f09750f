package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datachat-labs/datachat/internal/session"
)

type askOptions struct {
	ShowSQL bool
	Export  string
	Chart   string
}

func newAskCommand() *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask a natural-language question about the data",
		Long: `Ask a question in plain language. The question and the current schema are
sent to the text-generation service, the generated SQL is executed against
the session database, and the result is printed.`,
		Example: `  # Ask against a saved session database
  datachat ask --database sales.db "total amount by date"

  # Export the full result as CSV
  datachat ask --database sales.db --export out.csv "top customers"

  # Draw a chart of the result
  datachat ask --database sales.db --chart "bar chart by region" "sales by region"

  # Read the question from stdin
  echo "total amount by date" | datachat ask --database sales.db`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" && !isTerminal(os.Stdin) {
				content, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				question = strings.TrimSpace(string(content))
			}
			if question == "" {
				return fmt.Errorf("no question given")
			}
			return runAsk(cmd, question, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowSQL, "show-sql", false, "print the generated SQL before the result")
	cmd.Flags().StringVar(&opts.Export, "export", "", "write the full result to a CSV file")
	cmd.Flags().StringVar(&opts.Chart, "chart", "", "chart the result with the given chart request")

	return cmd
}

func runAsk(cmd *cobra.Command, question string, opts *askOptions) error {
	sess, cleanup, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := sess.Ask(cmd.Context(), question)
	if errors.Is(err, session.ErrNoResults) {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No results found.")
		return nil
	}
	if err != nil {
		return err
	}

	if opts.ShowSQL {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", result.SQL)
	}
	if err := renderRows(cmd.OutOrStdout(), result.Preview(), getConfig().Format); err != nil {
		return err
	}

	if opts.Export != "" {
		f, err := os.Create(opts.Export)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		if err := result.ExportCSV(f); err != nil {
			_ = f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", result.Rows.Len(), opts.Export)
	}

	if opts.Chart != "" {
		orchestrator := newChartOrchestrator(cmd, sess)
		if _, err := orchestrator.Draw(cmd.Context(), question, opts.Chart, result.Rows); err != nil {
			return err
		}
	}
	return nil
}
