package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/datachat-labs/datachat/internal/chart"
	"github.com/datachat-labs/datachat/internal/config"
	"github.com/datachat-labs/datachat/internal/llm"
	"github.com/datachat-labs/datachat/internal/session"
	"github.com/datachat-labs/datachat/internal/store"
)

// getConfig returns the configuration loaded by the root command.
func getConfig() *config.Config {
	if c := config.GetCurrentConfig(); c != nil {
		return c
	}
	// Fallback for commands executed outside the root (tests).
	return &config.Config{
		Format:      config.DefaultFormat,
		HistoryFile: config.DefaultHistoryFile,
		LLM: config.LLMConfig{
			BaseURL: config.DefaultBaseURL,
			Model:   config.DefaultModel,
		},
	}
}

// newSession opens the session store and wires the generation client. The
// returned cleanup closes the store.
func newSession(cmd *cobra.Command) (*session.Session, func(), error) {
	c := getConfig()
	logger := c.NewLogger()

	st, err := store.Open(c.Database, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session database: %w", err)
	}

	client, err := llm.NewClient(llm.Config{
		BaseURL:     c.LLM.BaseURL,
		APIKey:      c.LLM.APIKey,
		Model:       c.LLM.Model,
		Temperature: c.LLM.Temperature,
		Timeout:     c.LLMTimeout(),
	})
	if err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("failed to configure generation client: %w", err)
	}

	sess := session.New(st, client, logger)
	sess.SetContext(c.Context)

	cleanup := func() { _ = st.Close() }
	return sess, cleanup, nil
}

// newChartOrchestrator wires a terminal renderer onto the command's output.
func newChartOrchestrator(cmd *cobra.Command, sess *session.Session) *chart.Orchestrator {
	renderer := chart.NewTermRenderer(cmd.OutOrStdout())
	return chart.New(sess.Generator(), renderer, "chart", getConfig().NewLogger())
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
