package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newQuestionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "questions",
		Short: "Suggest example questions for the current dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, cleanup, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			info := sess.Questions(cmd.Context())
			if info.Err != nil {
				return info.Err
			}
			if len(info.Questions) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No suggestions. Upload a dataset first.")
				return nil
			}
			for _, q := range info.Questions {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", q)
			}
			return nil
		},
	}
}
