package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/finloom/finaudit-cli/internal/config"
	"github.com/finloom/finaudit-cli/internal/pipeline"
)

var (
	auditOutDir          string
	auditInputMode       string
	auditValueColumn     string
	auditDimensions      []string
	auditIDColumns       []string
	auditHeaderMode      string
	auditSeed            int64
	auditIncludeNewItems bool
)

var auditCmd = &cobra.Command{
	Use:   "audit <input-file>",
	Short: "Run the full anomaly audit and write reports",
	Long: `Audit runs every enabled detection pass over the input table and writes
crosstab reports, audit logs, and a run summary to the output directory.
Flags override the corresponding config file settings for this run only.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		applyAuditFlags(cmd, c)

		if err := os.MkdirAll(auditOutDir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		runner, err := pipeline.NewRunner(c)
		if err != nil {
			return err
		}
		res, err := runner.Run(args[0], auditOutDir)
		if err != nil {
			return err
		}
		printRunSummary(cmd, res)
		return nil
	},
}

func init() {
	auditCmd.Flags().StringVarP(&auditOutDir, "out", "o", ".", "output directory for reports")
	auditCmd.Flags().StringVar(&auditInputMode, "input-mode", "", "input table shape: long|crosstab")
	auditCmd.Flags().StringVar(&auditValueColumn, "value-column", "", "column holding the amounts to audit")
	auditCmd.Flags().StringSliceVar(&auditDimensions, "dimensions", nil, "time-series dimension columns")
	auditCmd.Flags().StringSliceVar(&auditIDColumns, "id-columns", nil, "crosstab identifier columns")
	auditCmd.Flags().StringVar(&auditHeaderMode, "header-mode", "", "crosstab header interpretation: auto|date|sequential")
	auditCmd.Flags().Int64Var(&auditSeed, "seed", 0, "peer-group random seed (overrides config)")
	auditCmd.Flags().BoolVar(&auditIncludeNewItems, "include-new-items", false, "also log new_item findings")
	rootCmd.AddCommand(auditCmd)
}

func applyAuditFlags(cmd *cobra.Command, c *cfgpkg.Audit) {
	f := cmd.Flags()
	if f.Changed("input-mode") {
		c.InputMode = cfgpkg.InputMode(auditInputMode)
	}
	if f.Changed("value-column") {
		c.ValueColumn = auditValueColumn
	}
	if f.Changed("dimensions") {
		c.TimeSeries.Dimensions = auditDimensions
	}
	if f.Changed("id-columns") {
		c.Crosstab.IDColumns = auditIDColumns
	}
	if f.Changed("header-mode") {
		c.Crosstab.HeaderMode = auditHeaderMode
	}
	if f.Changed("seed") {
		c.PeerGroup.Seed = auditSeed
	}
	if f.Changed("include-new-items") {
		c.Report.IncludeNewItems = auditIncludeNewItems
	}
}

func printRunSummary(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s complete.\n", res.RunID)
	if len(res.Summary.Findings) == 0 {
		fmt.Fprintln(out, "No anomalies found.")
	} else {
		kinds := make([]string, 0, len(res.Summary.Findings))
		for k := range res.Summary.Findings {
			kinds = append(kinds, k)
		}
		sort.Strings(kinds)
		var parts []string
		for _, k := range kinds {
			parts = append(parts, fmt.Sprintf("%s=%d", k, res.Summary.Findings[k]))
		}
		fmt.Fprintf(out, "Anomalies: %s\n", strings.Join(parts, ", "))
	}
	for _, p := range res.Summary.Outputs {
		fmt.Fprintf(out, "  wrote %s\n", p)
	}
}
