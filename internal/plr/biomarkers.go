package plr

import (
	"errors"
	"fmt"
)

// ErrNoConstrictionOnset reports a post-stimulus trace in which no
// velocity sample crosses the configured constriction threshold. The
// affected eye yields no biomarkers; the recording's other outputs are
// unaffected.
var ErrNoConstrictionOnset = errors.New("no velocity sample crosses the constriction threshold")

// ConstrictionConfig parametrizes biomarker extraction.
type ConstrictionConfig struct {
	// VelocityThreshold is the constriction-onset threshold in mm per
	// unit time. It must be negative: constriction is a decreasing
	// pupil size.
	VelocityThreshold float64

	// SGWindow and SGPolyOrder configure the Savitzky-Golay
	// differentiator producing the velocity signal.
	SGWindow    int
	SGPolyOrder int
}

// Biomarkers are the constriction measures extracted from one eye's
// smoothed post-stimulus trace. Times are elapsed time since flash
// onset in the recording's unit; sizes are millimetres.
type Biomarkers struct {
	Eye Eye

	// Latency is the elapsed time of the first velocity sample below
	// the onset threshold, scanning forward from stimulus onset.
	Latency float64

	// Amplitude is the pre-constriction maximum minus the in-window
	// minimum pupil size.
	Amplitude float64

	// AvgVelocity is Amplitude over the latency-to-maximum interval.
	AvgVelocity float64

	// PeakVelocity is the magnitude of the most negative velocity.
	PeakVelocity float64

	// MaxConstrictionTime is the elapsed time of the in-window pupil
	// minimum; ties resolve to the earliest sample.
	MaxConstrictionTime float64
}

// ExtractBiomarkers derives the constriction biomarkers from the
// smoothed pupil series restricted to the post-stimulus window
// [0, flashDuration].
//
// Latency uses an explicit first-crossing scan: when no sample
// satisfies the threshold the function returns ErrNoConstrictionOnset
// rather than defaulting to the first index. A degenerate zero-length
// latency-to-maximum interval yields an average velocity of zero.
func ExtractBiomarkers(smooth Series, eye Eye, flashDuration float64, cfg ConstrictionConfig) (Biomarkers, error) {
	if cfg.VelocityThreshold >= 0 {
		return Biomarkers{}, fmt.Errorf("constriction velocity threshold %g must be negative", cfg.VelocityThreshold)
	}

	window := smooth.Slice(0, flashDuration)
	sg, err := NewSavGol(cfg.SGWindow, cfg.SGPolyOrder, 1)
	if err != nil {
		return Biomarkers{}, fmt.Errorf("velocity filter: %w", err)
	}

	velocity, err := velocitySeries(window, sg)
	if err != nil {
		return Biomarkers{}, fmt.Errorf("velocity filter: %w", err)
	}

	// Constriction onset: first crossing below the negative threshold,
	// earliest index wins.
	onsetIdx := -1
	for i := 0; i < velocity.Len(); i++ {
		if v, ok := velocity.At(i); ok && v < cfg.VelocityThreshold {
			onsetIdx = i
			break
		}
	}
	if onsetIdx < 0 {
		return Biomarkers{}, ErrNoConstrictionOnset
	}
	latency := window.Times[onsetIdx]

	minIdx, ok := window.MinIndex()
	if !ok {
		return Biomarkers{}, fmt.Errorf("no valid pupil sample in post-stimulus window")
	}
	minVal, _ := window.At(minIdx)
	maxTime := window.Times[minIdx]

	preMax := window.Slice(window.Times[0], latency).Max()
	if !preMax.Valid {
		return Biomarkers{}, fmt.Errorf("no valid pupil sample before constriction onset")
	}
	amplitude := preMax.Value - minVal

	avgVelocity := 0.0
	if span := maxTime - latency; span > 0 {
		avgVelocity = amplitude / span
	}

	peak := 0.0
	for i := 0; i < velocity.Len(); i++ {
		if v, ok := velocity.At(i); ok && -v > peak {
			peak = -v
		}
	}

	return Biomarkers{
		Eye:                 eye,
		Latency:             latency,
		Amplitude:           amplitude,
		AvgVelocity:         avgVelocity,
		PeakVelocity:        peak,
		MaxConstrictionTime: maxTime,
	}, nil
}

// velocitySeries converts the per-sample Savitzky-Golay derivative into
// a physical rate by dividing by the local sample spacing, which keeps
// the scaling correct under non-uniform sampling.
func velocitySeries(s Series, sg *SavGol) (Series, error) {
	deriv, err := sg.Filter(s)
	if err != nil {
		return Series{}, err
	}
	out := NewSeries(s.Times)
	for i := 0; i < deriv.Len(); i++ {
		v, ok := deriv.At(i)
		if !ok {
			continue
		}
		if dt := localSpacing(s.Times, i); dt > 0 {
			out.Set(i, v/dt)
		}
	}
	return out, nil
}
