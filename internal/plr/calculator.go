package plr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// SmoothingConfig parametrizes noise reduction and the stable interval
// used for signal-quality scoring.
type SmoothingConfig struct {
	Window int
	Shape  WindowShape
	Stable StableInterval
}

// Config is the immutable engine configuration, passed explicitly into
// every entry point. There is no process-wide mutable configuration.
type Config struct {
	NominalIrisMM float64
	Unit          TimeUnit
	Blink         BlinkConfig
	Smoothing     SmoothingConfig
	Constriction  ConstrictionConfig

	// DataLossWarning and DataLossError bound the tolerated fraction of
	// non-OK frames. Above the warning the recording proceeds flagged;
	// above the error it is skipped outright.
	DataLossWarning float64
	DataLossError   float64
}

// DataLossError reports a recording whose fraction of invalid frames
// exceeds the configured error threshold. This is a quality gate, not a
// computation failure: the recording is skipped, the batch continues.
type DataLossError struct {
	RecordingID string
	Ratio       float64
	Threshold   float64
}

func (e *DataLossError) Error() string {
	return fmt.Sprintf("recording %s: data loss %.1f%% exceeds error threshold %.1f%%",
		e.RecordingID, e.Ratio*100, e.Threshold*100)
}

// EyeResult bundles the per-eye derived series and biomarkers.
type EyeResult struct {
	Eye      Eye
	Blink    []bool
	Openness Series
	PupilMM  Series
	SmoothMM Series

	// Biomarkers is nil when extraction did not complete for this eye,
	// e.g. when no constriction onset was found.
	Biomarkers *Biomarkers
}

// Result is everything the pipeline retains for one recording.
type Result struct {
	RecordingID      string
	DataLoss         float64
	DataLossElevated bool
	Unit             TimeUnit
	Elapsed          []float64
	FlashActive      []bool
	FlashDuration    float64
	Quality          SignalQuality
	Eyes             map[Eye]*EyeResult
}

// Calculator runs the full per-recording pipeline. It holds only
// configuration and a logger; recordings never share state, so one
// Calculator may serve concurrent workers.
type Calculator struct {
	cfg    Config
	logger *slog.Logger
}

// NewCalculator creates a calculator with the given engine configuration.
func NewCalculator(cfg Config, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{cfg: cfg, logger: logger}
}

// Process runs time alignment, geometric measurement, blink removal,
// calibration, noise reduction, quality scoring and biomarker
// extraction for one recording. Errors are recording-scoped: the caller
// skips the recording and continues the batch.
func (c *Calculator) Process(ctx context.Context, rec *Recording) (*Result, error) {
	dataLoss := rec.DataLoss()
	c.logger.InfoContext(ctx, "processing recording",
		"recording_id", rec.ID,
		"frames", len(rec.Frames),
		"data_loss", dataLoss,
	)

	if dataLoss > c.cfg.DataLossError {
		return nil, &DataLossError{RecordingID: rec.ID, Ratio: dataLoss, Threshold: c.cfg.DataLossError}
	}
	elevated := dataLoss > c.cfg.DataLossWarning
	if elevated {
		c.logger.WarnContext(ctx, "high data loss",
			"recording_id", rec.ID,
			"data_loss", dataLoss,
			"warning_threshold", c.cfg.DataLossWarning,
		)
	}

	aligned, err := Align(rec, c.cfg.Unit)
	if err != nil {
		return nil, fmt.Errorf("time alignment: %w", err)
	}

	res := &Result{
		RecordingID:      rec.ID,
		DataLoss:         dataLoss,
		DataLossElevated: elevated,
		Unit:             c.cfg.Unit,
		Elapsed:          aligned.Elapsed,
		FlashActive:      aligned.FlashActive,
		FlashDuration:    aligned.FlashDuration,
		Eyes:             make(map[Eye]*EyeResult, len(Eyes)),
	}

	for _, eye := range Eyes {
		er, err := c.processEye(ctx, aligned, eye)
		if err != nil {
			return nil, fmt.Errorf("%s eye: %w", eye, err)
		}
		res.Eyes[eye] = er
	}

	left, right := res.Eyes[EyeLeft], res.Eyes[EyeRight]
	res.Quality = ScoreSignalQuality(left.PupilMM, right.PupilMM, left.SmoothMM, right.SmoothMM, c.cfg.Smoothing.Stable)
	c.logger.InfoContext(ctx, "signal quality",
		"recording_id", rec.ID,
		"raw_mm", res.Quality.Raw,
		"smooth_mm", res.Quality.Smooth,
	)

	// Biomarker extraction is the last stage and feeds nothing further:
	// a failure here costs that eye its biomarkers record, never the
	// quality scores or series already computed for the recording.
	for _, eye := range Eyes {
		er := res.Eyes[eye]
		bm, err := ExtractBiomarkers(er.SmoothMM, eye, aligned.FlashDuration, c.cfg.Constriction)
		switch {
		case errors.Is(err, ErrNoConstrictionOnset):
			// The eye simply yields no biomarkers record.
			c.logger.WarnContext(ctx, "no constriction onset detected",
				"recording_id", rec.ID,
				"eye", eye.String(),
			)
		case err != nil:
			c.logger.WarnContext(ctx, "biomarker extraction failed",
				"recording_id", rec.ID,
				"eye", eye.String(),
				"error", err.Error(),
			)
		default:
			er.Biomarkers = &bm
			c.logger.InfoContext(ctx, "constriction biomarkers",
				"recording_id", rec.ID,
				"eye", eye.String(),
				"latency", bm.Latency,
				"amplitude_mm", bm.Amplitude,
				"avg_velocity", bm.AvgVelocity,
				"peak_velocity", bm.PeakVelocity,
			)
		}
	}

	return res, nil
}

// processEye runs the geometric, blink, calibration and smoothing
// stages for a single eye.
func (c *Calculator) processEye(ctx context.Context, aligned *Aligned, eye Eye) (*EyeResult, error) {
	geo := MeasureGeometry(aligned, eye)

	mask, err := DetectBlinks(geo.Openness, eye, c.cfg.Blink)
	if err != nil {
		return nil, fmt.Errorf("blink detection: %w", err)
	}
	mask.Apply(geo.Series()...)
	c.logger.DebugContext(ctx, "blink frames masked",
		"recording_id", aligned.Recording.ID,
		"eye", eye.String(),
		"masked_frames", mask.Count(),
	)

	pupilMM := Calibrate(geo.PupilPx, geo.IrisPx, c.cfg.NominalIrisMM)

	smoothMM, err := Smooth(pupilMM, c.cfg.Smoothing.Window, c.cfg.Smoothing.Shape)
	if err != nil {
		return nil, fmt.Errorf("noise reduction: %w", err)
	}

	return &EyeResult{
		Eye:      eye,
		Blink:    mask.InBlink,
		Openness: geo.Openness,
		PupilMM:  pupilMM,
		SmoothMM: smoothMM,
	}, nil
}
