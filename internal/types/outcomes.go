// Package types provides type definitions for structured data used throughout the statement-agent system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"github.com/jonathan/statement-agent/internal/dataset"
)

// Target selects which document and reference dataset a run operates on (e.g. a bank name)
type Target string

// GenerationRequest is built fresh for every attempt
type GenerationRequest struct {
	Target      Target `json:"target"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
	Description string `json:"description"`
	// Feedback is the diagnostic from the immediately preceding failed attempt, nil on attempt 1
	Feedback *string `json:"feedback,omitempty"`
}

// HasFeedback reports whether the request carries prior-failure feedback
func (r GenerationRequest) HasFeedback() bool {
	return r.Feedback != nil
}

// ExecutionStatus tags an ExecutionOutcome
type ExecutionStatus string

// Execution outcome tags
const (
	ExecSuccess        ExecutionStatus = "success"
	ExecEmpty          ExecutionStatus = "empty_result"
	ExecRuntimeFailure ExecutionStatus = "runtime_failure"
)

// ExecutionOutcome is the classified result of running a parser artifact
type ExecutionOutcome struct {
	Status  ExecutionStatus
	Dataset *dataset.Dataset // set for ExecSuccess
	Message string           // diagnostic for ExecEmpty and ExecRuntimeFailure
}

// ExecutionSucceeded returns a success outcome carrying ds
func ExecutionSucceeded(ds *dataset.Dataset) ExecutionOutcome {
	return ExecutionOutcome{Status: ExecSuccess, Dataset: ds, Message: "Success"}
}

// ExecutionEmpty returns an empty-result outcome
func ExecutionEmpty(message string) ExecutionOutcome {
	return ExecutionOutcome{Status: ExecEmpty, Message: message}
}

// ExecutionFailed returns a runtime-failure outcome
func ExecutionFailed(message string) ExecutionOutcome {
	return ExecutionOutcome{Status: ExecRuntimeFailure, Message: message}
}

// ValidationStatus tags a ValidationOutcome
type ValidationStatus string

// Validation outcome tags
const (
	ValidationPassed      ValidationStatus = "passed"
	ValidationNoReference ValidationStatus = "no_reference"
	ValidationMismatch    ValidationStatus = "mismatch"
)

// ValidationOutcome is the result of comparing a produced dataset with a reference
type ValidationOutcome struct {
	Status  ValidationStatus
	Message string
}

// Accepted reports whether the outcome ends the run successfully.
// A missing reference counts as accepted since there is nothing to check against.
func (v ValidationOutcome) Accepted() bool {
	return v.Status == ValidationPassed || v.Status == ValidationNoReference
}

// AttemptRecord captures one generate/execute/validate cycle
type AttemptRecord struct {
	Index   int
	Request GenerationRequest
	// GenerationFailure is set when no runnable artifact was produced
	GenerationFailure string
	Execution         *ExecutionOutcome
	Validation        *ValidationOutcome
}

// Feedback returns the diagnostic this attempt hands to the next one, or "" if it succeeded
func (a AttemptRecord) Feedback() string {
	if a.GenerationFailure != "" {
		return a.GenerationFailure
	}
	if a.Execution != nil && a.Execution.Status != ExecSuccess {
		return a.Execution.Message
	}
	if a.Validation != nil && !a.Validation.Accepted() {
		return a.Validation.Message
	}
	return ""
}

// RunStatus tags a RunOutcome
type RunStatus string

// Terminal run states
const (
	RunSuccess        RunStatus = "success"
	RunPartialSuccess RunStatus = "partial_success"
	RunFailure        RunStatus = "failure"
)

// RunOutcome is the terminal result of a run
type RunOutcome struct {
	Status   RunStatus
	Dataset  *dataset.Dataset // set for RunSuccess and RunPartialSuccess
	Reason   string
	Attempts int
	// OutputPath is where the dataset was persisted, empty on failure
	OutputPath string
}

// Succeeded reports whether the run produced an output dataset
func (o RunOutcome) Succeeded() bool {
	return o.Status == RunSuccess || o.Status == RunPartialSuccess
}

// RunInfo identifies a run and its inputs
type RunInfo struct {
	ID            string
	Target        Target
	DocumentPath  string
	ReferencePath string
	MaxAttempts   int
	// Reference is the loaded reference dataset, nil when none was found
	Reference *dataset.Dataset
}
