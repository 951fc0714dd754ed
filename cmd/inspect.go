package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	cfgpkg "github.com/finloom/finaudit-cli/internal/config"
	"github.com/finloom/finaudit-cli/internal/dataset"
	"github.com/finloom/finaudit-cli/internal/inspect"
)

var (
	inspectSheet       string
	inspectSkipRows    int
	inspectWriteConfig string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <input-file>",
	Short: "Profile a table's columns before configuring an audit",
	Long: `Inspect reads the input table and reports per-column statistics: inferred
kind, null rate, distinct values, numeric spread, and frequent categories.
With --write-config it also writes a suggested audit configuration derived
from the profile, as a starting point to edit.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := dataset.LoadFile(args[0], dataset.LoadOptions{
			SheetName: inspectSheet,
			SkipRows:  inspectSkipRows,
		})
		if err != nil {
			return fmt.Errorf("load input: %w", err)
		}
		p := inspect.Analyze(t)
		printProfile(cmd, p)

		if inspectWriteConfig != "" {
			rec := inspect.Recommend(p, t.Columns)
			if err := cfgpkg.Save(rec, inspectWriteConfig); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nSuggested config written to %s (review before use).\n", inspectWriteConfig)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	inspectCmd.Flags().IntVar(&inspectSkipRows, "skip-rows", 0, "rows to skip before the header")
	inspectCmd.Flags().StringVar(&inspectWriteConfig, "write-config", "", "write a suggested audit config to this path")
	rootCmd.AddCommand(inspectCmd)
}

func printProfile(cmd *cobra.Command, p *inspect.Profile) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d rows, %d columns\n\n", p.Rows, len(p.Columns))
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tKIND\tNULLS\tUNIQUE\tDETAIL")
	for _, c := range p.Columns {
		nullPct := 0.0
		if p.Rows > 0 {
			nullPct = float64(c.Missing) / float64(p.Rows) * 100
		}
		fmt.Fprintf(w, "%s\t%s\t%.1f%%\t%d\t%s\n", c.Name, c.Kind, nullPct, c.Unique, columnDetail(c))
	}
	w.Flush()
}

func columnDetail(c inspect.ColumnProfile) string {
	switch c.Kind {
	case inspect.KindNumeric:
		return fmt.Sprintf("min=%.2f max=%.2f mean=%.2f std=%.2f", c.Min, c.Max, c.Mean, c.Std)
	case inspect.KindCategorical:
		var parts []string
		for _, tv := range c.TopValues {
			parts = append(parts, fmt.Sprintf("%s(%d)", tv.Value, tv.Count))
		}
		return strings.Join(parts, " ")
	default:
		return strings.Join(c.Samples, ", ")
	}
}
