// Package commands implements the ledgerctl command line.
package commands

import (
	"github.com/spf13/cobra"

	"nomadledger/internal/config"
	"nomadledger/internal/log"
)

type globalOptions struct {
	dbPath   string
	logLevel string
}

func (o *globalOptions) logger() *log.Logger {
	return log.NewForLevel(o.logLevel, "ledgerctl")
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	cfg := config.Load()
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Offline tools for the NomadLedger SQLite store",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.dbPath, "db", cfg.SQLiteDBPath, "path of the SQLite database")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newExportCommand(opts))
	rootCmd.AddCommand(newMigrateCommand(opts))

	return rootCmd
}
