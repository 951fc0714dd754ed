// Package cmd wires the finaudit CLI: configuration loading, logging
// verbosity, and the audit/convert/inspect/config subcommands.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	cfgpkg "github.com/finloom/finaudit-cli/internal/config"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	quiet   bool

	// Loaded configuration
	cfg *cfgpkg.Audit
)

var rootCmd = &cobra.Command{
	Use:   "finaudit",
	Short: "Anomaly detection for monthly financial data",
	Long: `finaudit scans monthly financial tables for anomalies with two passes:
a rolling-window IQR check of each line item against its own history, and an
isolation-forest comparison of each item against its peer group. It reads
long-format or crosstab CSV/XLSX input and writes crosstab reports and flat
audit logs.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./finaudit.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "log warnings and errors only")
}

func loadConfig() {
	switch {
	case debug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case quiet:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands that need config validate it themselves.
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c
}

// requireConfig returns the loaded configuration or fails the command.
func requireConfig() (*cfgpkg.Audit, error) {
	if cfg == nil {
		return nil, fmt.Errorf("no configuration loaded; create one with 'finaudit config init'")
	}
	return cfg, nil
}
