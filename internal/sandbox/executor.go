// Package sandbox runs generated parser programs in a fresh interpreter process per attempt.
package sandbox

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/statement-agent/internal/dataset"
	"github.com/jonathan/statement-agent/internal/schemas"
	"github.com/jonathan/statement-agent/internal/types"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single parser execution
const DefaultTimeout = 120 * time.Second

// DefaultInterpreter runs the embedded runner script
const DefaultInterpreter = "python3"

// maxStderrTail limits how much interpreter stderr is carried into a failure message
const maxStderrTail = 2000

//go:embed runner.py
var runnerScript string

// Executor runs an artifact against a document and classifies the result.
// Implementations never return errors; every problem becomes an ExecutionOutcome.
type Executor interface {
	Execute(ctx context.Context, target types.Target, artifactPath, documentPath string) types.ExecutionOutcome
}

// SubprocessExecutor starts one interpreter process per execution. Each process imports
// the artifact under a fresh module name and is discarded afterwards, so no definition
// from an earlier attempt can leak into a later one.
type SubprocessExecutor struct {
	interpreter string
	timeout     time.Duration
}

// NewSubprocessExecutor creates an executor. Empty interpreter and non-positive timeout use defaults.
func NewSubprocessExecutor(interpreter string, timeout time.Duration) *SubprocessExecutor {
	if interpreter == "" {
		interpreter = DefaultInterpreter
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &SubprocessExecutor{interpreter: interpreter, timeout: timeout}
}

// Available reports whether the interpreter can be found
func (e *SubprocessExecutor) Available() bool {
	_, err := exec.LookPath(e.interpreter)
	return err == nil
}

// Execute runs parse(documentPath) from the artifact and classifies the outcome
func (e *SubprocessExecutor) Execute(ctx context.Context, target types.Target, artifactPath, documentPath string) types.ExecutionOutcome {
	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	moduleName := ModuleName(target)
	cmd := exec.CommandContext(runCtx, e.interpreter, "-c", runnerScript, moduleName, artifactPath, documentPath)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	zap.L().Debug("parser process finished",
		zap.String("target", string(target)),
		zap.String("module", moduleName),
		zap.Duration("elapsed", elapsed),
		zap.Error(runErr),
	)

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return types.ExecutionFailed(fmt.Sprintf("Parser execution failed: timed out after %s", e.timeout))
	case ctx.Err() != nil:
		return types.ExecutionFailed(fmt.Sprintf("Parser execution failed: %v", ctx.Err()))
	}

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return types.ExecutionFailed(fmt.Sprintf("Parser execution failed: could not start %s: %v", e.interpreter, runErr))
	}

	outcome := ClassifyEnvelope(stdout.Bytes())
	if runErr != nil && (outcome.Status != types.ExecRuntimeFailure || stdout.Len() == 0) {
		return types.ExecutionFailed(fmt.Sprintf("Parser execution failed: %v\n%s", runErr, tail(stderr.String())))
	}
	return outcome
}

// ModuleName returns a module name unique to this target and execution
func ModuleName(target types.Target) string {
	return fmt.Sprintf("%s_parser_%s", sanitize(string(target)), strings.ReplaceAll(uuid.NewString(), "-", ""))
}

var nonIdentifier = regexp.MustCompile(`[^A-Za-z0-9_]`)

func sanitize(name string) string {
	name = nonIdentifier.ReplaceAllString(name, "_")
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		name = "t_" + name
	}
	return name
}

type envelope struct {
	Status    string   `json:"status"`
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	Error     string   `json:"error"`
	Traceback string   `json:"traceback"`
}

// ClassifyEnvelope turns runner output into an ExecutionOutcome
func ClassifyEnvelope(raw []byte) types.ExecutionOutcome {
	content := strings.TrimSpace(string(raw))
	if content == "" {
		return types.ExecutionFailed("Parser execution failed: runner produced no output")
	}
	// the envelope is always the final line
	if idx := strings.LastIndex(content, "\n"); idx >= 0 {
		content = content[idx+1:]
	}

	if err := schemas.ValidateEnvelope(content); err != nil {
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			return types.ExecutionFailed("Parser execution failed: malformed runner output: " + validationErr.Summary())
		}
		return types.ExecutionFailed("Parser execution failed: unreadable runner output: " + err.Error())
	}

	dec := json.NewDecoder(strings.NewReader(content))
	dec.UseNumber()
	var env envelope
	if err := dec.Decode(&env); err != nil {
		return types.ExecutionFailed("Parser execution failed: unreadable runner output: " + err.Error())
	}

	if env.Status == "error" {
		msg := "Parser execution failed: " + env.Error
		if tb := strings.TrimSpace(env.Traceback); tb != "" {
			msg += "\n" + tb
		}
		return types.ExecutionFailed(msg)
	}

	if env.Rows == nil {
		return types.ExecutionEmpty("parser returned None")
	}
	if len(env.Rows) == 0 || len(env.Columns) == 0 {
		return types.ExecutionEmpty("parser returned empty DataFrame")
	}

	ds, err := dataset.FromRows(env.Columns, env.Rows)
	if err != nil {
		return types.ExecutionFailed("Parser execution failed: " + err.Error())
	}
	return types.ExecutionSucceeded(ds)
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrTail {
		s = "..." + s[len(s)-maxStderrTail:]
	}
	return s
}
