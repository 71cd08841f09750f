// Package cli provides the command-line interface for datachat.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datachat-labs/datachat/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "datachat",
		Short: "DataChat - talk to your tabular data",
		Long: `DataChat loads CSV, TSV, and SQLite files into a local database,
suggests questions about the data, translates your questions into SQL with a
text-generation service, and renders, exports, or charts the results.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			if cfg.Verbose {
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", configFile)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Conversational tabular query engine
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./datachat.yaml)")
	rootCmd.PersistentFlags().String("database", "", "session database path (empty for in-memory)")
	rootCmd.PersistentFlags().String("context", "", "free-text context about the dataset")
	rootCmd.PersistentFlags().StringP("format", "f", "", "output format (table|json|csv|md)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newChatCommand())
	rootCmd.AddCommand(newUploadCommand())
	rootCmd.AddCommand(newAskCommand())
	rootCmd.AddCommand(newQuestionsCommand())
	rootCmd.AddCommand(newSchemaCommand())
	rootCmd.AddCommand(newDemosCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

// Execute runs the root command and returns a process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
