package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/datachat-labs/datachat/internal/chart"
	"github.com/datachat-labs/datachat/internal/session"
)

func newChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session with your data",
		Long: `Start an interactive session. Free text is treated as a question about
the data; dot-commands manage the session:

  .upload FILE...   load CSV/TSV/SQLite files
  .schema           show tables and columns
  .questions        suggest example questions
  .context TEXT     set the dataset context narrative
  .demo [N]         list demos, or load demo N
  .sql              show the SQL behind the current result
  .output           show the current result (first 100 rows)
  .export FILE      write the current result as CSV
  .chart [REQUEST]  draw a chart of the current result
  .quit             exit`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd)
		},
	}
}

// chatState bundles what the REPL loop threads through dot-commands.
type chatState struct {
	sess   *session.Session
	charts *chart.Orchestrator
	out    io.Writer
	errOut io.Writer
	format string
}

func runChat(cmd *cobra.Command) error {
	sess, cleanup, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	state := &chatState{
		sess:   sess,
		charts: newChartOrchestrator(cmd, sess),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
		format: getConfig().Format,
	}
	defer state.charts.Destroy()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "datachat> ",
		HistoryFile:     getConfig().HistoryFile,
		AutoComplete:    chatCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(state.out, "DataChat session %s\n", sess.ID())
	_, _ = fmt.Fprintln(state.out, "Upload a file with .upload, then ask questions. Type .help for commands.")
	_, _ = fmt.Fprintln(state.out)

	ctx := cmd.Context()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ".") {
			if quit := state.handleDotCommand(ctx, line); quit {
				break
			}
			continue
		}

		state.ask(ctx, line)
	}
	return nil
}

// ask submits a question and reports the outcome without ever terminating
// the session: every fault is a notification.
func (c *chatState) ask(ctx context.Context, question string) {
	result, err := c.sess.Ask(ctx, question)
	switch {
	case errors.Is(err, session.ErrNoResults):
		_, _ = fmt.Fprintln(c.out, "No results found.")
	case err != nil:
		_, _ = fmt.Fprintf(c.errOut, "Error: %v\n", err)
	default:
		_, _ = fmt.Fprintf(c.out, "Query returned %d rows. Use .output, .sql, .export FILE, or .chart to explore.\n", result.Rows.Len())
	}
}

// handleDotCommand executes one dot-command and reports whether the REPL
// should exit.
func (c *chatState) handleDotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printChatHelp(c.out)

	case ".upload":
		if len(args) == 0 {
			_, _ = fmt.Fprintln(c.errOut, "Usage: .upload FILE...")
			break
		}
		c.upload(ctx, args)

	case ".schema":
		c.printSchema(ctx)

	case ".questions":
		c.printQuestions(ctx)

	case ".context":
		c.sess.SetContext(strings.TrimSpace(strings.TrimPrefix(line, ".context")))
		_, _ = fmt.Fprintln(c.out, "Context updated.")

	case ".demo":
		c.demo(ctx, args)

	case ".sql":
		if result := c.requireResult(); result != nil {
			_, _ = fmt.Fprintln(c.out, result.SQL)
		}

	case ".output":
		if result := c.requireResult(); result != nil {
			if err := renderRows(c.out, result.Preview(), c.format); err != nil {
				_, _ = fmt.Fprintf(c.errOut, "Error: %v\n", err)
			}
		}

	case ".export":
		if len(args) != 1 {
			_, _ = fmt.Fprintln(c.errOut, "Usage: .export FILE")
			break
		}
		c.export(args[0])

	case ".chart":
		intent := "Draw the most appropriate chart to visualize this data"
		if len(args) > 0 {
			intent = strings.Join(args, " ")
		}
		c.drawChart(ctx, intent)

	default:
		_, _ = fmt.Fprintf(c.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (c *chatState) upload(ctx context.Context, paths []string) {
	results := c.sess.UploadAll(ctx, paths)
	imported := false
	for _, res := range results {
		if res.Err != nil {
			_, _ = fmt.Fprintf(c.errOut, "Error: %s: %v\n", res.Path, res.Err)
			continue
		}
		imported = true
		_, _ = fmt.Fprintf(c.out, "Imported %s: %s\n", res.Path, strings.Join(res.Tables, ", "))
	}
	if imported {
		// Mirror the original flow: show the new schema, then suggestions.
		c.printSchema(ctx)
		c.printQuestions(ctx)
	}
}

func (c *chatState) printSchema(ctx context.Context) {
	snapshot, err := c.sess.Schema(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return
	}
	renderSchema(c.out, snapshot)
}

func (c *chatState) printQuestions(ctx context.Context) {
	info := c.sess.Questions(ctx)
	if info.Err != nil {
		_, _ = fmt.Fprintf(c.errOut, "Error: %v\n", info.Err)
		return
	}
	if len(info.Questions) == 0 {
		return
	}
	_, _ = fmt.Fprintln(c.out, "Sample questions:")
	for _, q := range info.Questions {
		_, _ = fmt.Fprintf(c.out, "  - %s\n", q)
	}
}

func (c *chatState) demo(ctx context.Context, args []string) {
	demos := getConfig().Demos
	if len(args) == 0 {
		if len(demos) == 0 {
			_, _ = fmt.Fprintln(c.out, "No demos configured.")
			return
		}
		for i, d := range demos {
			_, _ = fmt.Fprintf(c.out, "%2d. %s - %s\n", i+1, d.Title, d.Body)
		}
		return
	}

	index, err := strconv.Atoi(args[0])
	if err != nil || index < 1 || index > len(demos) {
		_, _ = fmt.Fprintf(c.errOut, "Invalid demo index: %s\n", args[0])
		return
	}
	demo := demos[index-1]

	tables, err := c.sess.Upload(ctx, demo.File)
	if err != nil {
		_, _ = fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return
	}
	if len(demo.Questions) > 0 {
		if err := c.sess.SeedQuestions(ctx, demo.Questions); err != nil {
			_, _ = fmt.Fprintf(c.errOut, "Error: %v\n", err)
			return
		}
	}
	c.sess.SetContext(demo.Context)
	_, _ = fmt.Fprintf(c.out, "Loaded demo %q (tables: %s)\n", demo.Title, strings.Join(tables, ", "))
	c.printQuestions(ctx)
}

func (c *chatState) export(path string) {
	result := c.requireResult()
	if result == nil {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		_, _ = fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return
	}
	if err := result.ExportCSV(f); err != nil {
		_ = f.Close()
		_, _ = fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return
	}
	if err := f.Close(); err != nil {
		_, _ = fmt.Fprintf(c.errOut, "Error: %v\n", err)
		return
	}
	_, _ = fmt.Fprintf(c.out, "Exported %d rows to %s\n", result.Rows.Len(), path)
}

func (c *chatState) drawChart(ctx context.Context, intent string) {
	result := c.requireResult()
	if result == nil {
		return
	}
	if _, err := c.charts.Draw(ctx, result.Question, intent, result.Rows); err != nil {
		_, _ = fmt.Fprintf(c.errOut, "Error: %v\n", err)
	}
}

func (c *chatState) requireResult() *session.Result {
	result := c.sess.Current()
	if result == nil {
		_, _ = fmt.Fprintln(c.errOut, "No query result yet. Ask a question first.")
		return nil
	}
	return result
}

func chatCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".upload"),
		readline.PcItem(".schema"),
		readline.PcItem(".questions"),
		readline.PcItem(".context"),
		readline.PcItem(".demo"),
		readline.PcItem(".sql"),
		readline.PcItem(".output"),
		readline.PcItem(".export"),
		readline.PcItem(".chart"),
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
	)
}

func printChatHelp(w io.Writer) {
	help := `
Commands:
  .upload FILE...   Load CSV/TSV/SQLite files into the session
  .schema           Show tables and columns
  .questions        Suggest example questions for the dataset
  .context TEXT     Set free-text context about the dataset
  .demo [N]         List demos, or load demo N
  .sql              Show the SQL behind the current result
  .output           Show the current result (first 100 rows)
  .export FILE      Write the current result as CSV
  .chart [REQUEST]  Draw a chart of the current result
  .help             Show this help message
  .quit / .exit     Exit

Anything else is sent as a question about your data.
`
	_, _ = fmt.Fprintln(w, help)
}
