package plr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasureGeometryDistances(t *testing.T) {
	rec := syntheticRecording("geom", 8, 100*time.Millisecond, 2, 6, 5, 10, 2)
	a, err := Align(rec, UnitSeconds)
	require.NoError(t, err)

	g := MeasureGeometry(a, EyeLeft)

	for i, est := range g.PupilEstimates {
		v, ok := est.At(0)
		require.True(t, ok, "estimate %s", PupilPairs[i].Label)
		assert.InDelta(t, 5.0, v, 1e-12, "estimate %s", PupilPairs[i].Label)
	}
	iris, ok := g.IrisPx.At(0)
	require.True(t, ok)
	assert.InDelta(t, 10.0, iris, 1e-12)

	// Mean of four identical estimates.
	pupil, ok := g.PupilPx.At(0)
	require.True(t, ok)
	assert.InDelta(t, 5.0, pupil, 1e-12)
}

func TestMeasureGeometryInvalidFramePropagates(t *testing.T) {
	rec := syntheticRecording("geom-loss", 8, 100*time.Millisecond, 2, 6, 5, 10, 2)
	rec.Frames[3].Retcode = "NO_FACE"
	a, err := Align(rec, UnitSeconds)
	require.NoError(t, err)

	g := MeasureGeometry(a, EyeRight)

	for _, s := range g.Series() {
		_, ok := s.At(3)
		assert.False(t, ok, "frame with bad retcode must stay missing in every derived series")
		_, ok = s.At(2)
		assert.True(t, ok)
	}
}

func TestOpennessSelfNormalization(t *testing.T) {
	// Gap distance halves on the later frames, so the per-metric
	// normalization by the recording-wide maximum maps the series to
	// 1.0 then 0.5.
	t0 := time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)
	rec := &Recording{ID: "open"}
	for i := 0; i < 6; i++ {
		gap := 4.0
		if i >= 3 {
			gap = 2.0
		}
		rec.Frames = append(rec.Frames, syntheticFrame(t0.Add(time.Duration(i)*100*time.Millisecond), RetcodeOK, 5, 10, gap))
	}
	rec.Events = []Event{
		{Time: t0, Name: EventFlashOn},
		{Time: t0.Add(300 * time.Millisecond), Name: EventFlashOff},
	}

	a, err := Align(rec, UnitSeconds)
	require.NoError(t, err)
	g := MeasureGeometry(a, EyeLeft)

	early, ok := g.Openness.At(0)
	require.True(t, ok)
	late, ok := g.Openness.At(5)
	require.True(t, ok)
	assert.InDelta(t, 1.0, early, 1e-12)
	assert.InDelta(t, 0.5, late, 1e-12)
}

func TestOpennessZeroMaxGapExcluded(t *testing.T) {
	rec := syntheticRecording("open-zero", 4, 100*time.Millisecond, 0, 3, 5, 10, 0)
	a, err := Align(rec, UnitSeconds)
	require.NoError(t, err)

	g := MeasureGeometry(a, EyeLeft)
	for i := 0; i < g.Openness.Len(); i++ {
		_, ok := g.Openness.At(i)
		assert.False(t, ok, "all-zero gap metrics cannot be normalized")
	}
}
