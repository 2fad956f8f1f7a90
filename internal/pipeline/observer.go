package pipeline

import (
	"context"

	"github.com/jonathan/statement-agent/internal/types"
)

// Observer receives progress from a Controller. Errors are logged by the caller and never
// change the run's outcome.
type Observer interface {
	RunStarted(ctx context.Context, run types.RunInfo) error
	AttemptFinished(ctx context.Context, run types.RunInfo, record types.AttemptRecord) error
	RunFinished(ctx context.Context, run types.RunInfo, outcome types.RunOutcome) error
}

// Observers fans events out to several observers, returning the first error
type Observers []Observer

// RunStarted implements Observer
func (o Observers) RunStarted(ctx context.Context, run types.RunInfo) error {
	var first error
	for _, obs := range o {
		if err := obs.RunStarted(ctx, run); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// AttemptFinished implements Observer
func (o Observers) AttemptFinished(ctx context.Context, run types.RunInfo, record types.AttemptRecord) error {
	var first error
	for _, obs := range o {
		if err := obs.AttemptFinished(ctx, run, record); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// RunFinished implements Observer
func (o Observers) RunFinished(ctx context.Context, run types.RunInfo, outcome types.RunOutcome) error {
	var first error
	for _, obs := range o {
		if err := obs.RunFinished(ctx, run, outcome); err != nil && first == nil {
			first = err
		}
	}
	return first
}
