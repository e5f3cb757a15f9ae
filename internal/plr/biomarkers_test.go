package plr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constrictionTestConfig() ConstrictionConfig {
	return ConstrictionConfig{
		VelocityThreshold: -0.5,
		SGWindow:          5,
		SGPolyOrder:       2,
	}
}

// rampTrace builds the canonical synthetic constriction: flat at 6.0 mm
// until t=1.0s, a linear descent of 2 mm/s until t=2.0s, then flat at
// 4.0 mm. Sampling is 50 ms.
func rampTrace() Series {
	const dt = 0.05
	n := 51
	s := NewSeries(make([]float64, n))
	for i := 0; i < n; i++ {
		s.Times[i] = float64(i) * dt
		switch {
		case i <= 20:
			s.Set(i, 6.0)
		case i <= 40:
			s.Set(i, 6.0-0.1*float64(i-20))
		default:
			s.Set(i, 4.0)
		}
	}
	return s
}

func TestExtractBiomarkersKnownTrace(t *testing.T) {
	bm, err := ExtractBiomarkers(rampTrace(), EyeLeft, 2.5, constrictionTestConfig())
	require.NoError(t, err)

	// The windowed derivative first drops below -0.5 mm/s at the ramp
	// corner itself; earlier windows mix too much of the flat baseline.
	assert.InDelta(t, 1.0, bm.Latency, 1e-9)
	assert.InDelta(t, 2.0, bm.Amplitude, 1e-9)
	assert.InDelta(t, 2.0, bm.MaxConstrictionTime, 1e-9)
	assert.InDelta(t, 2.0, bm.AvgVelocity, 1e-9)
	assert.InDelta(t, 2.0, bm.PeakVelocity, 1e-9)
	assert.Equal(t, EyeLeft, bm.Eye)
}

func TestExtractBiomarkersEarliestMinimumWins(t *testing.T) {
	// The flat tail ties the global minimum over many frames; the
	// reported time must be the first of them.
	bm, err := ExtractBiomarkers(rampTrace(), EyeRight, 2.5, constrictionTestConfig())
	require.NoError(t, err)
	assert.InDelta(t, 2.0, bm.MaxConstrictionTime, 1e-9)
}

func TestExtractBiomarkersNoOnset(t *testing.T) {
	flat := constantSeries([]float64{0, 0.05, 0.1, 0.15, 0.2, 0.25, 0.3}, 6.0)

	_, err := ExtractBiomarkers(flat, EyeLeft, 0.3, constrictionTestConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoConstrictionOnset),
		"an all-false crossing mask must be an explicit error, not index zero")
}

func TestExtractBiomarkersDegenerateInterval(t *testing.T) {
	// Global minimum precedes the detected onset: an initial dip is
	// followed by a plateau, then a slow decline that triggers the
	// threshold. The latency-to-maximum interval is non-positive, so
	// the average velocity falls back to zero.
	n := 31
	s := NewSeries(make([]float64, n))
	for i := 0; i < n; i++ {
		s.Times[i] = float64(i)
		switch {
		case i == 0:
			s.Set(i, 5.0)
		case i <= 10:
			s.Set(i, 10.0)
		case i <= 20:
			s.Set(i, 10.0-0.4*float64(i-10))
		default:
			s.Set(i, 6.0)
		}
	}

	cfg := ConstrictionConfig{VelocityThreshold: -0.2, SGWindow: 5, SGPolyOrder: 2}
	bm, err := ExtractBiomarkers(s, EyeLeft, 30, cfg)
	require.NoError(t, err)

	assert.Zero(t, bm.MaxConstrictionTime)
	assert.Greater(t, bm.Latency, bm.MaxConstrictionTime)
	assert.InDelta(t, 5.0, bm.Amplitude, 1e-9)
	assert.Zero(t, bm.AvgVelocity, "zero-length constriction interval must not divide by zero")
}

func TestExtractBiomarkersWindowTooShort(t *testing.T) {
	short := constantSeries([]float64{0, 0.05, 0.1}, 6.0)

	_, err := ExtractBiomarkers(short, EyeLeft, 0.1, constrictionTestConfig())
	assert.True(t, errors.Is(err, ErrFilterWindow))
}

func TestExtractBiomarkersRequiresNegativeThreshold(t *testing.T) {
	cfg := constrictionTestConfig()
	cfg.VelocityThreshold = 0.5

	_, err := ExtractBiomarkers(rampTrace(), EyeLeft, 2.5, cfg)
	require.Error(t, err)
}
