package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/datachat-labs/datachat/internal/config"
	"github.com/datachat-labs/datachat/internal/session"
)

func newDemosCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "demos",
		Short: "List the demo datasets from the config file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			demos := getConfig().Demos
			if len(demos) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No demos configured. Add a demos: section to datachat.yaml.")
				return nil
			}
			for i, d := range demos {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%2d. %s - %s (%s)\n", i+1, d.Title, d.Body, d.File)
			}
			return nil
		},
	}

	cmd.AddCommand(newDemosLoadCommand())
	return cmd
}

func newDemosLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "load INDEX",
		Short: "Load a demo dataset into the session database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := strconv.Atoi(args[0])
			if err != nil || index < 1 || index > len(getConfig().Demos) {
				return fmt.Errorf("invalid demo index: %s", args[0])
			}
			demo := getConfig().Demos[index-1]

			sess, cleanup, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := loadDemo(cmd, sess, demo); err != nil {
				return err
			}
			return nil
		},
	}
}

// loadDemo uploads the demo's file, installs its curated questions for the
// resulting schema, and sets the dataset context.
func loadDemo(cmd *cobra.Command, sess *session.Session, demo config.Demo) error {
	tables, err := sess.Upload(cmd.Context(), demo.File)
	if err != nil {
		return err
	}
	if len(demo.Questions) > 0 {
		if err := sess.SeedQuestions(cmd.Context(), demo.Questions); err != nil {
			return err
		}
	}
	sess.SetContext(demo.Context)

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Loaded demo %q (tables: %v)\n", demo.Title, tables)
	return nil
}
