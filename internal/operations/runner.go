package operations

import (
	"context"
	"fmt"
	"log/slog"
)

// Runner executes the batch steps in order, recording each step's
// lifecycle in the run state. The first step-level error stops the
// run; per-recording faults never reach this level.
type Runner struct {
	steps  []Step
	logger *slog.Logger
}

// NewRunner creates a runner over the given steps.
func NewRunner(logger *slog.Logger, steps ...Step) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{steps: steps, logger: logger}
}

// NewBatchRunner wires the standard discover, analyze, export sequence.
func NewBatchRunner(logger *slog.Logger) *Runner {
	return NewRunner(logger,
		NewDiscoverStep(logger),
		NewComputeStep(logger),
		NewExportStep(logger),
	)
}

// Run executes all steps against the state.
func (r *Runner) Run(ctx context.Context, state *RunState) error {
	for _, step := range r.steps {
		if err := ctx.Err(); err != nil {
			return err
		}

		st := state.StepState(step.ID(), step.Name())

		if err := step.Validate(state); err != nil {
			st.Fail(err)
			return fmt.Errorf("step %s validation failed: %w", step.ID(), err)
		}

		st.Start()
		r.logger.InfoContext(ctx, "Step started",
			slog.String("step", step.ID()),
			slog.String("name", step.Name()))

		if err := step.Execute(ctx, state); err != nil {
			st.Fail(err)
			r.logger.ErrorContext(ctx, "Step failed",
				slog.String("step", step.ID()),
				slog.Duration("duration", st.Duration()),
				slog.String("error", err.Error()))
			return fmt.Errorf("step %s failed: %w", step.ID(), err)
		}

		st.Complete()
		r.logger.InfoContext(ctx, "Step completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", st.Duration()))
	}
	return nil
}
