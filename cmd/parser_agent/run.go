package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/statement-agent/internal/artifact"
	"github.com/jonathan/statement-agent/internal/config"
	"github.com/jonathan/statement-agent/internal/types"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Generate, execute, and validate a parser for one target",
	Long: `Analyzes data/<target>_sample.pdf once, then repeatedly asks the model for a parser,
runs it, and compares its output with the reference CSV, feeding each failure back into the
next attempt. A matching or best-effort dataset is written to parsed_<target>.csv.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runAgentCmd,
}

var (
	runTarget string
	runFlags  agentFlags
)

func init() {
	runCommand.Flags().StringVarP(&runTarget, "target", "t", "", "Target identifier, e.g. icici (required)")
	_ = runCommand.MarkFlagRequired("target")
	bindAgentFlags(runCommand, &runFlags)

	rootCmd.AddCommand(runCommand)
}

func runAgentCmd(cmd *cobra.Command, _ []string) error {
	if err := artifact.ValidTarget(runTarget); err != nil {
		return err
	}

	cfg, err := resolveConfig(cmd, &runFlags)
	if err != nil {
		return err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer func() { _ = zap.L().Sync() }()

	// Fail on missing credentials before any analysis
	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newAgent(ctx, cfg, apiKey, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	target := types.Target(runTarget)
	zap.L().Info("starting run",
		zap.String("target", runTarget),
		zap.String("provider", cfg.Provider),
		zap.Int("max_attempts", cfg.MaxAttempts),
	)

	outcome, err := a.runTarget(ctx, target)
	if err != nil {
		return fmt.Errorf("run for %s aborted: %w", target, err)
	}
	reportOutcome(cmd.OutOrStdout(), target, outcome)
	return nil
}
