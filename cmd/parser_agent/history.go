package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jonathan/statement-agent/internal/db"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "List recent runs for a target from the run journal",
	RunE:  runHistoryCmd,
}

var (
	historyTarget string
	historyDBURL  string
	historyLimit  int
)

func init() {
	historyCommand.Flags().StringVarP(&historyTarget, "target", "t", "", "Target identifier (required)")
	historyCommand.Flags().StringVar(&historyDBURL, "db-url", "", "Run journal: postgres:// URL or SQLite file (defaults to DATABASE_URL env var)")
	historyCommand.Flags().IntVar(&historyLimit, "limit", 10, "Maximum runs to list")
	_ = historyCommand.MarkFlagRequired("target")

	rootCmd.AddCommand(historyCommand)
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	url := historyDBURL
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	ctx := context.Background()
	journal, err := db.Open(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to open run journal: %w", err)
	}
	defer journal.Close() //nolint:errcheck

	runs, err := journal.RecentRuns(ctx, historyTarget, historyLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		_, _ = fmt.Fprintf(out, "no runs recorded for %s\n", historyTarget)
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STARTED\tSTATUS\tATTEMPTS\tOUTPUT\tRUN ID")
	for _, r := range runs {
		output := r.OutputPath
		if output == "" {
			output = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status, r.Attempts, output, r.ID)
	}
	return w.Flush()
}
