package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jonathan/statement-agent/internal/analysis"
	"github.com/jonathan/statement-agent/internal/artifact"
	"github.com/jonathan/statement-agent/internal/config"
	"github.com/jonathan/statement-agent/internal/db"
	"github.com/jonathan/statement-agent/internal/discovery"
	"github.com/jonathan/statement-agent/internal/ingestion"
	"github.com/jonathan/statement-agent/internal/llm"
	"github.com/jonathan/statement-agent/internal/observability"
	"github.com/jonathan/statement-agent/internal/pipeline"
	"github.com/jonathan/statement-agent/internal/prompts"
	"github.com/jonathan/statement-agent/internal/sandbox"
	"github.com/jonathan/statement-agent/internal/synthesis"
	"github.com/jonathan/statement-agent/internal/types"
)

// agent holds what every target run shares: the model client, the journal, and the printer
type agent struct {
	cfg       config.Config
	client    llm.Client
	extractor analysis.TextExtractor
	executor  sandbox.Executor
	journal   db.Journal
	printer   *observability.Printer
}

// newAgent builds the shared collaborators. The API key must already be resolved.
func newAgent(ctx context.Context, cfg config.Config, apiKey string, out io.Writer) (*agent, error) {
	if err := prompts.CheckRequired(); err != nil {
		return nil, err
	}

	base, err := llm.NewClient(ctx, llm.ConfigFor(llm.Provider(cfg.Provider)), apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	client := llm.NewRateLimitedClient(llm.NewTimeoutClient(base, cfg.LLMTimeout()), cfg.RequestsPerMinute)

	a := &agent{
		cfg:      cfg,
		client:   client,
		executor: sandbox.NewSubprocessExecutor(cfg.Interpreter, cfg.ExecTimeout()),
	}

	if pdf := ingestion.NewPdfToText(cfg.PdfToText); pdf.Available() {
		a.extractor = pdf
	} else {
		zap.L().Info("pdftotext not found, prompts will not include a text excerpt", zap.String("binary", cfg.PdfToText))
	}

	if cfg.DatabaseURL != "" {
		journal, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to open run journal: %w", err)
		}
		a.journal = journal
	}

	if cfg.Verbose {
		a.printer = observability.NewPrinter(out)
	}
	return a, nil
}

// Close releases the model client and the journal
func (a *agent) Close() {
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			zap.L().Warn("failed to close run journal", zap.Error(err))
		}
	}
	if err := a.client.Close(); err != nil {
		zap.L().Warn("failed to close LLM client", zap.Error(err))
	}
}

func (a *agent) observers() pipeline.Observers {
	var obs pipeline.Observers
	if a.journal != nil {
		obs = append(obs, a.journal)
	}
	if a.printer != nil {
		obs = append(obs, a.printer)
	}
	return obs
}

// controller builds a Controller with its own artifact store, so targets never share one
func (a *agent) controller() (*pipeline.Controller, error) {
	store, err := artifact.NewStore(a.cfg.ParserDir)
	if err != nil {
		return nil, err
	}
	return pipeline.NewController(
		analysis.NewLLMAnalyzer(a.client, a.extractor),
		synthesis.NewLLMSynthesizer(a.client),
		a.executor,
		store,
		pipeline.Options{
			MaxAttempts: a.cfg.MaxAttempts,
			OutputDir:   a.cfg.OutputDir,
			Observer:    a.observers(),
		},
	)
}

// runTarget locates the target's inputs and runs the retry loop
func (a *agent) runTarget(ctx context.Context, target types.Target) (types.RunOutcome, error) {
	inputs := discovery.Locate(a.cfg.DataDir, string(target))
	ctrl, err := a.controller()
	if err != nil {
		return types.RunOutcome{Status: types.RunFailure, Reason: err.Error()}, err
	}
	return ctrl.Run(ctx, target, inputs)
}

// reportOutcome prints a one-line summary of a run
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func reportOutcome(out io.Writer, target types.Target, outcome types.RunOutcome) {
	switch outcome.Status {
	case types.RunSuccess:
		fmt.Fprintf(out, "✓ %s: parser validated after %d attempt(s), output written to %s\n", target, outcome.Attempts, outcome.OutputPath)
	case types.RunPartialSuccess:
		fmt.Fprintf(out, "⚠ %s: attempts exhausted, last output written to %s without passing validation\n", target, outcome.OutputPath)
	default:
		fmt.Fprintf(out, "✗ %s: failed to generate a working parser: %s\n", target, outcome.Reason)
	}
}
