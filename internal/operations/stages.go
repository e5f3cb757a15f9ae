package operations

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"plrcli/internal/dataprocessing"
	apperrors "plrcli/internal/errors"
	"plrcli/internal/exporter"
	"plrcli/internal/plr"
)

// Step IDs
const (
	StepIDDiscover = "discover"
	StepIDCompute  = "compute"
	StepIDExport   = "export"
)

// DiscoverStep scans the data directory for recording exports.
type DiscoverStep struct {
	logger *slog.Logger
}

// NewDiscoverStep creates the discovery step.
func NewDiscoverStep(logger *slog.Logger) *DiscoverStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &DiscoverStep{logger: logger}
}

func (s *DiscoverStep) ID() string   { return StepIDDiscover }
func (s *DiscoverStep) Name() string { return "Discover recordings" }

func (s *DiscoverStep) Validate(state *RunState) error {
	if state.DataDir == "" {
		return fmt.Errorf("data directory is not configured")
	}
	return nil
}

func (s *DiscoverStep) Execute(ctx context.Context, state *RunState) error {
	ids, err := dataprocessing.DiscoverRecordings(state.DataDir)
	if err != nil {
		return fmt.Errorf("discovery failed: %w", err)
	}
	state.SetRecordingIDs(ids)

	s.logger.InfoContext(ctx, "Discovered recordings",
		slog.String("dir", state.DataDir),
		slog.Int("count", len(ids)))
	if len(ids) == 0 {
		s.logger.WarnContext(ctx, "No recordings found in data directory",
			slog.String("dir", state.DataDir))
	}
	return nil
}

// ComputeStep analyzes every discovered recording on a bounded worker
// pool. A recording that fails to load or analyze is recorded and
// skipped; it never aborts the batch.
type ComputeStep struct {
	logger *slog.Logger
}

// NewComputeStep creates the analysis step.
func NewComputeStep(logger *slog.Logger) *ComputeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ComputeStep{logger: logger}
}

func (s *ComputeStep) ID() string   { return StepIDCompute }
func (s *ComputeStep) Name() string { return "Analyze recordings" }

func (s *ComputeStep) Validate(state *RunState) error {
	if state.Workers < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", state.Workers)
	}
	return nil
}

func (s *ComputeStep) Execute(ctx context.Context, state *RunState) error {
	calc := plr.NewCalculator(state.Engine, s.logger)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(state.Workers)

	for _, id := range state.RecordingIDs() {
		id := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.processRecording(ctx, state, calc, id)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("analysis pool stopped: %w", err)
	}

	s.logger.InfoContext(ctx, "Batch analysis complete",
		slog.Int("analyzed", len(state.Results())),
		slog.Int("rejected", len(state.Rejected())),
		slog.Int("failed", len(state.Failures())))
	return nil
}

// processRecording analyzes one recording and files the outcome. All
// failure modes end up in the run state; none propagate.
func (s *ComputeStep) processRecording(ctx context.Context, state *RunState, calc *plr.Calculator, id string) {
	rec, err := dataprocessing.LoadRecording(state.DataDir, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Skipping unreadable recording",
			slog.String("recording_id", id),
			slog.String("error", err.Error()))
		state.AddFailure(apperrors.NewRecordingError(id, "load", apperrors.CodeLoadFailed, err))
		return
	}

	res, err := calc.Process(ctx, rec)
	if err != nil {
		s.fileProcessError(ctx, state, id, err)
		return
	}

	state.AddResult(res)
}

func (s *ComputeStep) fileProcessError(ctx context.Context, state *RunState, id string, err error) {
	var dataLoss *plr.DataLossError
	if stderrors.As(err, &dataLoss) {
		s.logger.WarnContext(ctx, "Recording rejected for data loss",
			slog.String("recording_id", id),
			slog.Float64("ratio", dataLoss.Ratio),
			slog.Float64("threshold", dataLoss.Threshold))
		state.AddRejected(exporter.RejectedRecording{
			RecordingID: id,
			DataLoss:    dataLoss.Ratio,
			Reason:      apperrors.CodeExcessiveDataLoss,
		})
		return
	}

	code := apperrors.CodeStageFailed
	var missingEvent *plr.MissingStimulusEventError
	switch {
	case stderrors.As(err, &missingEvent):
		code = apperrors.CodeMissingStimulusEvent
	case stderrors.Is(err, plr.ErrFilterWindow):
		code = apperrors.CodeInvalidFilterWindow
	}

	s.logger.ErrorContext(ctx, "Skipping recording after analysis failure",
		slog.String("recording_id", id),
		slog.String("code", code),
		slog.String("error", err.Error()))
	state.AddFailure(apperrors.NewRecordingError(id, "compute", code, err))
}

// ExportStep writes the batch reports.
type ExportStep struct {
	logger *slog.Logger
}

// NewExportStep creates the export step.
func NewExportStep(logger *slog.Logger) *ExportStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportStep{logger: logger}
}

func (s *ExportStep) ID() string   { return StepIDExport }
func (s *ExportStep) Name() string { return "Export reports" }

func (s *ExportStep) Validate(state *RunState) error {
	if state.OutputDir == "" {
		return fmt.Errorf("output directory is not configured")
	}
	return nil
}

func (s *ExportStep) Execute(ctx context.Context, state *RunState) error {
	w := exporter.NewWriter(state.OutputDir)
	results := state.Results()

	if err := w.WriteSummary(results, state.Rejected()); err != nil {
		return fmt.Errorf("%s: %w", apperrors.CodeExportFailed, err)
	}
	if err := w.WriteBiomarkers(results); err != nil {
		return fmt.Errorf("%s: %w", apperrors.CodeExportFailed, err)
	}
	for _, res := range results {
		if err := w.WriteSeries(res); err != nil {
			return fmt.Errorf("%s: series for %s: %w", apperrors.CodeExportFailed, res.RecordingID, err)
		}
	}
	if err := w.WriteWorkbook(results); err != nil {
		return fmt.Errorf("%s: %w", apperrors.CodeExportFailed, err)
	}

	s.logger.InfoContext(ctx, "Reports written",
		slog.String("dir", state.OutputDir),
		slog.Int("recordings", len(results)))
	return nil
}
