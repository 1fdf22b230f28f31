// Package pipeline sequences the build steps (schema, import, index,
// dedup, import tracks, track indexes, prune, vacuum) against a
// resumable pipelinestate.State, skipping what is already completed
// and saving progress after every step.
package pipeline

import (
	"context"
	"fmt"

	"github.com/WXYC/discogs-cache/internal/logctx"
	"github.com/WXYC/discogs-cache/internal/pipelinestate"
)

// Step is one named unit of work. Run executes the step's work; Skip,
// when non-nil, is consulted before Run to mark steps that are no-ops
// under the current configuration (e.g. prune with no library
// attached) as completed without running them.
type Step struct {
	Name string
	Run  func(ctx context.Context) error
	Skip func() bool
}

// Orchestrator runs Steps in order against State, persisting to
// StatePath after every step that actually executes.
type Orchestrator struct {
	Steps     []Step
	State     *pipelinestate.State
	StatePath string
}

// Run executes every step in order. A step already marked completed
// in State is skipped with a log line. A step whose Skip predicate
// returns true is marked completed immediately without running. A
// failing step is marked failed, saved, and aborts the run.
func (o *Orchestrator) Run(ctx context.Context) error {
	for _, step := range o.Steps {
		stepCtx := logctx.WithStep(ctx, step.Name)
		logger := logctx.From(stepCtx)

		if o.State.IsCompleted(step.Name) {
			logger.Info("skipping completed step")
			continue
		}

		if step.Skip != nil && step.Skip() {
			logger.Info("marking no-op step completed")
			if err := o.State.MarkCompleted(step.Name); err != nil {
				return fmt.Errorf("pipeline: mark %s completed: %w", step.Name, err)
			}
			if err := o.State.Save(o.StatePath); err != nil {
				return fmt.Errorf("pipeline: save state after %s: %w", step.Name, err)
			}
			continue
		}

		logger.Info("running step")
		if err := step.Run(stepCtx); err != nil {
			logger.Error("step failed", "error", err)
			if markErr := o.State.MarkFailed(step.Name, err.Error()); markErr != nil {
				return fmt.Errorf("pipeline: mark %s failed: %w (original error: %v)", step.Name, markErr, err)
			}
			if saveErr := o.State.Save(o.StatePath); saveErr != nil {
				return fmt.Errorf("pipeline: save state after %s failure: %w (original error: %v)", step.Name, saveErr, err)
			}
			return fmt.Errorf("pipeline: step %s: %w", step.Name, err)
		}

		if err := o.State.MarkCompleted(step.Name); err != nil {
			return fmt.Errorf("pipeline: mark %s completed: %w", step.Name, err)
		}
		if err := o.State.Save(o.StatePath); err != nil {
			return fmt.Errorf("pipeline: save state after %s: %w", step.Name, err)
		}
		logger.Info("step completed")
	}
	return nil
}
