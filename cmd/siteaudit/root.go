package main

import (
	"log/slog"

	"github.com/spboyer/siteaudit/internal/webapi"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "siteaudit",
		Short: "siteaudit - audit web pages with pa11y, Lighthouse, the Nu HTML Checker, ESLint and Stylelint",
		Long: `siteaudit runs accessibility, performance, HTML conformance and lint checks
against a web page and folds the results into one scored report.

Use "siteaudit serve" to expose the POST /check API and the audit page, or
"siteaudit check <url>" to run a one-shot audit from the command line.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if *debugLogging {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	}

	// Add subcommands
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newCheckCommand())

	return cmd
}

func execute() error {
	if version != "dev" {
		webapi.Version = version
	}
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
