package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/statement-agent/internal/artifact"
	"github.com/jonathan/statement-agent/internal/config"
	"github.com/jonathan/statement-agent/internal/types"
)

var batchCommand = &cobra.Command{
	Use:   "batch",
	Short: "Run the agent for several targets concurrently",
	Long: `Runs the same generate/execute/validate loop as "run" for each target in --targets.
Each target gets its own parser file and output file; at most --parallel targets run at once.`,
	RunE: runBatchCmd,
}

var (
	batchTargets  string
	batchParallel int
	batchFlags    agentFlags
)

func init() {
	batchCommand.Flags().StringVar(&batchTargets, "targets", "", "Comma-separated target identifiers, e.g. icici,sbi (required)")
	batchCommand.Flags().IntVarP(&batchParallel, "parallel", "p", 2, "Maximum number of targets processed concurrently")
	_ = batchCommand.MarkFlagRequired("targets")
	bindAgentFlags(batchCommand, &batchFlags)

	rootCmd.AddCommand(batchCommand)
}

// parseTargets splits a comma-separated list, dropping blanks and duplicates
func parseTargets(list string) []types.Target {
	seen := make(map[string]bool)
	var targets []types.Target
	for _, part := range strings.Split(list, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		targets = append(targets, types.Target(name))
	}
	return targets
}

// batchResult is the outcome of one target within a batch
type batchResult struct {
	Target  types.Target
	Outcome types.RunOutcome
	Err     error
}

// runBatch runs fn for every target with at most parallel in flight. A fatal error in one
// target does not stop the others.
func runBatch(ctx context.Context, targets []types.Target, parallel int, fn func(context.Context, types.Target) (types.RunOutcome, error)) []batchResult {
	if parallel <= 0 {
		parallel = 1
	}
	results := make([]batchResult, len(targets))

	var g errgroup.Group
	g.SetLimit(parallel)
	for i, target := range targets {
		i, target := i, target
		g.Go(func() error {
			outcome, err := fn(ctx, target)
			results[i] = batchResult{Target: target, Outcome: outcome, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func runBatchCmd(cmd *cobra.Command, _ []string) error {
	targets := parseTargets(batchTargets)
	if len(targets) == 0 {
		return fmt.Errorf("--targets must name at least one target")
	}
	for _, target := range targets {
		if err := artifact.ValidTarget(string(target)); err != nil {
			return err
		}
	}

	cfg, err := resolveConfig(cmd, &batchFlags)
	if err != nil {
		return err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return err
	}
	defer func() { _ = zap.L().Sync() }()

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

	zap.L().Info("starting batch", zap.Int("targets", len(targets)), zap.Int("parallel", batchParallel))
	results := runBatch(ctx, targets, batchParallel, a.runTarget)

	var errs []error
	out := cmd.OutOrStdout()
	for _, r := range results {
		if r.Err != nil {
			_, _ = fmt.Fprintf(out, "✗ %s: aborted: %v\n", r.Target, r.Err)
			errs = append(errs, fmt.Errorf("%s: %w", r.Target, r.Err))
			continue
		}
		reportOutcome(out, r.Target, r.Outcome)
	}
	return errors.Join(errs...)
}
