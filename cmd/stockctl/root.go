package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"stock_portfolio/internal/platform/logging"
)

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "stockctl",
		Short:        "Operate the stock portfolio service",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			envErr := godotenv.Load(envFile)
			logging.Setup()
			if envErr != nil {
				slog.Debug(".env not loaded; using system environment variables", "file", envFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before running")

	root.AddCommand(
		newMigrateCmd(),
		newQuoteCmd(),
		newPortfolioCmd(),
		newStocksCmd(),
		newSessionsCmd(),
	)
	return root
}
