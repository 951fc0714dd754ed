package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/finloom/finaudit-cli/internal/crosstab"
	"github.com/finloom/finaudit-cli/internal/dataset"
)

var (
	convertOut        string
	convertIDColumns  []string
	convertValueName  string
	convertHeaderMode string
	convertSheet      string
	convertSkipRows   int
)

var convertCmd = &cobra.Command{
	Use:   "convert <input-file>",
	Short: "Convert a crosstab table to long format",
	Long: `Convert reshapes a wide crosstab (one column per month) into long format
with YEAR, MONTH, and DATE columns, one row per identifier and period.
Column headers must parse as dates; sequential headers (1, 2, 3, ...) carry
no calendar information and are rejected.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(convertIDColumns) == 0 {
			return fmt.Errorf("--id-columns is required")
		}
		mode, err := crosstab.ParseHeaderMode(convertHeaderMode)
		if err != nil {
			return err
		}
		t, err := dataset.LoadFile(args[0], dataset.LoadOptions{
			SheetName: convertSheet,
			SkipRows:  convertSkipRows,
		})
		if err != nil {
			return fmt.Errorf("load input: %w", err)
		}
		long, err := crosstab.Convert(t, convertIDColumns, convertValueName, mode)
		if err != nil {
			return err
		}
		if err := dataset.WriteCSV(convertOut, long); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Converted %d rows to %s (%d long rows).\n",
			t.Len(), convertOut, long.Len())
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVarP(&convertOut, "out", "o", "long_format.csv", "output CSV path")
	convertCmd.Flags().StringSliceVar(&convertIDColumns, "id-columns", nil, "identifier columns kept on every row")
	convertCmd.Flags().StringVar(&convertValueName, "value-name", "VALUE", "name of the generated value column")
	convertCmd.Flags().StringVar(&convertHeaderMode, "header-mode", "auto", "header interpretation: auto|date|sequential")
	convertCmd.Flags().StringVar(&convertSheet, "sheet", "", "XLSX sheet name (default first sheet)")
	convertCmd.Flags().IntVar(&convertSkipRows, "skip-rows", 0, "rows to skip before the header")
	rootCmd.AddCommand(convertCmd)
}
