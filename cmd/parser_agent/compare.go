package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/statement-agent/internal/dataset"
	"github.com/jonathan/statement-agent/internal/observability"
	"github.com/jonathan/statement-agent/internal/validation"
)

var compareCommand = &cobra.Command{
	Use:   "compare",
	Short: "Compare a produced CSV with a reference CSV",
	Long:  "Applies the same exact comparison the agent uses (columns, order, shape, typed cell values) and prints the result.",
	RunE:  runCompareCmd,
}

var (
	compareProduced string
	compareExpected string
	compareVerbose  bool
)

func init() {
	compareCommand.Flags().StringVar(&compareProduced, "produced", "", "Path to the produced CSV (required)")
	compareCommand.Flags().StringVar(&compareExpected, "expected", "", "Path to the reference CSV (required)")
	compareCommand.Flags().BoolVarP(&compareVerbose, "verbose", "v", false, "Print both datasets")
	_ = compareCommand.MarkFlagRequired("produced")
	_ = compareCommand.MarkFlagRequired("expected")

	rootCmd.AddCommand(compareCommand)
}

func runCompareCmd(cmd *cobra.Command, _ []string) error {
	produced, err := dataset.ReadCSVFile(compareProduced)
	if err != nil {
		return fmt.Errorf("failed to read produced CSV: %w", err)
	}
	expected, err := dataset.ReadCSVFile(compareExpected)
	if err != nil {
		return fmt.Errorf("failed to read expected CSV: %w", err)
	}

	out := cmd.OutOrStdout()
	if compareVerbose {
		p := observability.NewPrinter(out)
		p.PrintDataset("PRODUCED", produced)
		p.PrintDataset("EXPECTED", expected)
		p.PrintComparison(produced, expected)
	}

	outcome := validation.Validate(produced, expected)
	_, _ = fmt.Fprintf(out, "%s: %s\n", outcome.Status, outcome.Message)
	return nil
}
