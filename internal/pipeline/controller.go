// Package pipeline drives the analyze, generate, execute, validate loop for one target.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/statement-agent/internal/analysis"
	"github.com/jonathan/statement-agent/internal/artifact"
	"github.com/jonathan/statement-agent/internal/dataset"
	"github.com/jonathan/statement-agent/internal/discovery"
	"github.com/jonathan/statement-agent/internal/sandbox"
	"github.com/jonathan/statement-agent/internal/synthesis"
	"github.com/jonathan/statement-agent/internal/types"
	"github.com/jonathan/statement-agent/internal/validation"
)

// DefaultMaxAttempts is the attempt budget when none is configured
const DefaultMaxAttempts = 5

// Options configures a Controller
type Options struct {
	MaxAttempts int
	// OutputDir receives parsed_<target>.csv on success or partial success
	OutputDir string
	Observer  Observer
}

// Controller runs the retry loop. A Controller is used by one goroutine at a time.
type Controller struct {
	analyzer    analysis.Analyzer
	synthesizer synthesis.Synthesizer
	executor    sandbox.Executor
	store       *artifact.Store
	opts        Options
}

// NewController wires the collaborators into a Controller
func NewController(analyzer analysis.Analyzer, synthesizer synthesis.Synthesizer, executor sandbox.Executor, store *artifact.Store, opts Options) (*Controller, error) {
	if analyzer == nil || synthesizer == nil || executor == nil || store == nil {
		return nil, fmt.Errorf("analyzer, synthesizer, executor and artifact store are required")
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	return &Controller{
		analyzer:    analyzer,
		synthesizer: synthesizer,
		executor:    executor,
		store:       store,
		opts:        opts,
	}, nil
}

// OutputPath returns where the dataset for target is written
func (c *Controller) OutputPath(target types.Target) string {
	return filepath.Join(c.opts.OutputDir, fmt.Sprintf("parsed_%s.csv", target))
}

// Run analyzes the document once and then makes up to MaxAttempts generate/execute/validate
// cycles. The returned error is non-nil only for analysis failures and for failures to persist
// the artifact or the output dataset; every other problem ends in a RunOutcome.
func (c *Controller) Run(ctx context.Context, target types.Target, inputs discovery.Inputs) (types.RunOutcome, error) {
	log := zap.L().With(zap.String("target", string(target)))

	run := types.RunInfo{
		ID:            uuid.NewString(),
		Target:        target,
		DocumentPath:  inputs.Document,
		ReferencePath: inputs.Reference,
		MaxAttempts:   c.opts.MaxAttempts,
	}

	var referenceErr error
	if inputs.HasReference() {
		run.Reference, referenceErr = dataset.ReadCSVFile(inputs.Reference)
		if referenceErr != nil {
			log.Warn("failed to load reference dataset", zap.String("path", inputs.Reference), zap.Error(referenceErr))
		}
	}

	c.notify(log, "run started", c.observer().RunStarted(ctx, run))

	description, err := c.analyzer.Analyze(ctx, inputs.Document)
	if err != nil {
		outcome := types.RunOutcome{Status: types.RunFailure, Reason: err.Error()}
		c.finish(ctx, log, run, outcome)
		return outcome, err
	}
	c.store.SetDescription(description)
	log.Info("document structure analyzed", zap.Int("description_chars", len(description)))

	var feedback *string
	for k := 1; k <= c.opts.MaxAttempts; k++ {
		req := types.GenerationRequest{
			Target:      target,
			Attempt:     k,
			MaxAttempts: c.opts.MaxAttempts,
			Description: c.store.Description(),
			Feedback:    feedback,
		}
		attemptLog := log.With(zap.Int("attempt", k), zap.Int("max_attempts", c.opts.MaxAttempts))
		attemptLog.Info("starting attempt")

		record, produced, err := c.attempt(ctx, run, req, referenceErr)
		if err != nil {
			outcome := types.RunOutcome{Status: types.RunFailure, Reason: err.Error(), Attempts: k}
			c.finish(ctx, log, run, outcome)
			return outcome, err
		}
		c.notify(attemptLog, "attempt finished", c.observer().AttemptFinished(ctx, run, record))

		if record.Validation != nil && record.Validation.Accepted() {
			outcome := types.RunOutcome{Status: types.RunSuccess, Dataset: produced, Reason: record.Validation.Message, Attempts: k}
			return c.persist(ctx, log, run, outcome)
		}
		msg := record.Feedback()
		if msg == "" {
			msg = fmt.Sprintf("attempt %d failed", k)
		}
		attemptLog.Info("attempt failed", zap.String("feedback", firstLine(msg)))

		if k == c.opts.MaxAttempts {
			if produced != nil && !produced.Empty() {
				outcome := types.RunOutcome{Status: types.RunPartialSuccess, Dataset: produced, Reason: msg, Attempts: k}
				return c.persist(ctx, log, run, outcome)
			}
			outcome := types.RunOutcome{
				Status:   types.RunFailure,
				Reason:   fmt.Sprintf("maximum attempts (%d) reached: %s", c.opts.MaxAttempts, msg),
				Attempts: k,
			}
			c.finish(ctx, log, run, outcome)
			return outcome, nil
		}
		feedback = &msg
	}

	// unreachable with MaxAttempts >= 1
	outcome := types.RunOutcome{Status: types.RunFailure, Reason: "no attempts were made"}
	c.finish(ctx, log, run, outcome)
	return outcome, nil
}

// attempt performs one generate/execute/validate cycle. produced is set only when the
// executed artifact returned a dataset that reached validation.
func (c *Controller) attempt(ctx context.Context, run types.RunInfo, req types.GenerationRequest, referenceErr error) (types.AttemptRecord, *dataset.Dataset, error) {
	record := types.AttemptRecord{Index: req.Attempt, Request: req}

	source, err := c.synthesizer.Synthesize(ctx, req)
	switch {
	case err != nil:
		record.GenerationFailure = fmt.Sprintf("attempt %d failed: %v", req.Attempt, err)
		return record, nil, nil
	case !synthesis.IsPlausible(source):
		record.GenerationFailure = synthesis.TooShortMessage
		return record, nil, nil
	}

	artifactPath, err := c.store.Save(string(run.Target), source)
	if err != nil {
		return record, nil, err
	}

	execution := c.executor.Execute(ctx, run.Target, artifactPath, run.DocumentPath)
	record.Execution = &execution
	if execution.Status != types.ExecSuccess {
		return record, nil, nil
	}

	var outcome types.ValidationOutcome
	if referenceErr != nil {
		outcome = types.ValidationOutcome{Status: types.ValidationMismatch, Message: "validation failed: " + referenceErr.Error()}
	} else {
		outcome = validation.Validate(execution.Dataset, run.Reference)
	}
	record.Validation = &outcome
	return record, execution.Dataset, nil
}

func (c *Controller) persist(ctx context.Context, log *zap.Logger, run types.RunInfo, outcome types.RunOutcome) (types.RunOutcome, error) {
	path := c.OutputPath(run.Target)
	if err := dataset.WriteCSVFile(path, outcome.Dataset); err != nil {
		failed := types.RunOutcome{Status: types.RunFailure, Reason: err.Error(), Attempts: outcome.Attempts}
		c.finish(ctx, log, run, failed)
		return failed, fmt.Errorf("failed to write output dataset: %w", err)
	}
	outcome.OutputPath = path
	c.finish(ctx, log, run, outcome)
	return outcome, nil
}

func (c *Controller) finish(ctx context.Context, log *zap.Logger, run types.RunInfo, outcome types.RunOutcome) {
	log.Info("run finished",
		zap.String("outcome", string(outcome.Status)),
		zap.Int("attempts", outcome.Attempts),
		zap.String("path", outcome.OutputPath),
	)
	c.notify(log, "run finished", c.observer().RunFinished(ctx, run, outcome))
}

func (c *Controller) observer() Observer {
	if c.opts.Observer == nil {
		return Observers(nil)
	}
	return c.opts.Observer
}

func (c *Controller) notify(log *zap.Logger, event string, err error) {
	if err != nil {
		log.Warn("observer failed", zap.String("event", event), zap.Error(err))
	}
}

func firstLine(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			return s[:i]
		}
	}
	return s
}
