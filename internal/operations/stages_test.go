package operations

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "plrcli/internal/errors"
	"plrcli/internal/plr"
	"plrcli/internal/shared/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngineConfig() plr.Config {
	return plr.Config{
		NominalIrisMM: 11.7,
		Unit:          plr.UnitSeconds,
		Blink: plr.BlinkConfig{
			SGWindow:          5,
			SGPolyOrder:       2,
			OpennessThreshold: 0.3,
			SpeedThreshold:    0.5,
			IntervalWindow:    3,
		},
		Smoothing: plr.SmoothingConfig{
			Window: 5,
			Shape:  plr.WindowUniform,
			Stable: plr.StableInterval{Start: -1.5, End: -0.5},
		},
		Constriction: plr.ConstrictionConfig{
			VelocityThreshold: -0.5,
			SGWindow:          5,
			SGPolyOrder:       2,
		},
		DataLossWarning: 0.1,
		DataLossError:   0.25,
	}
}

type recordingSpec struct {
	id            string
	frames        int
	onIdx, offIdx int
	invalidFrames map[int]bool
	dropFlashOff  bool
}

// writeSyntheticRecording materializes a recording export in its own
// subdirectory, with landmark pairs realizing a 5 px pupil, 10 px iris
// and 2 px eyelid gap in every valid frame, sampled at 100 ms.
func writeSyntheticRecording(t *testing.T, dir string, spec recordingSpec) {
	t.Helper()

	sub := filepath.Join(dir, spec.id)
	require.NoError(t, os.MkdirAll(sub, 0o755))

	base := time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)
	const layout = "2006-01-02 15:04:05.000000"

	header := []string{"timestamp", "retcode"}
	for _, eye := range []string{"left", "right"} {
		for lm := 0; lm <= plr.LandmarkCount; lm++ {
			header = append(header, fmt.Sprintf("%s_lm_%d_x", eye, lm), fmt.Sprintf("%s_lm_%d_y", eye, lm))
		}
	}

	coord := func(lm int) (x, y float64) {
		switch lm {
		case 10, 24:
			return 5, 0
		case 23:
			return 0, 5
		case 11:
			return 10, 0
		case 17, 18, 19, 20, 21:
			return 0, 2
		}
		return 0, 0
	}

	var b strings.Builder
	b.WriteString(strings.Join(header, ",") + "\n")
	for i := 0; i < spec.frames; i++ {
		ts := base.Add(time.Duration(i) * 100 * time.Millisecond)
		retcode := "OK"
		if spec.invalidFrames[i] {
			retcode = "NO_FACE"
		}
		row := []string{ts.Format(layout), retcode}
		for range []string{"left", "right"} {
			for lm := 0; lm <= plr.LandmarkCount; lm++ {
				x, y := coord(lm)
				row = append(row, fmt.Sprintf("%g", x), fmt.Sprintf("%g", y))
			}
		}
		b.WriteString(strings.Join(row, ",") + "\n")
	}
	require.NoError(t, os.WriteFile(filepath.Join(sub, spec.id+"_plr_landmarks.csv"), []byte(b.String()), 0o644))

	protocol := "time,event\n"
	protocol += base.Add(time.Duration(spec.onIdx)*100*time.Millisecond).Format(layout) + ",FlashOn\n"
	if !spec.dropFlashOff {
		protocol += base.Add(time.Duration(spec.offIdx)*100*time.Millisecond).Format(layout) + ",FlashOff\n"
	}
	require.NoError(t, os.WriteFile(filepath.Join(sub, spec.id+"_plr_protocol.csv"), []byte(protocol), 0o644))
}

func TestBatchRunEndToEnd(t *testing.T) {
	dataDir := t.TempDir()
	outDir := t.TempDir()

	writeSyntheticRecording(t, dataDir, recordingSpec{id: "good-a", frames: 61, onIdx: 20, offIdx: 50})
	writeSyntheticRecording(t, dataDir, recordingSpec{id: "good-b", frames: 61, onIdx: 20, offIdx: 50})
	writeSyntheticRecording(t, dataDir, recordingSpec{
		id: "lossy", frames: 10, onIdx: 2, offIdx: 7,
		invalidFrames: map[int]bool{1: true, 4: true, 8: true},
	})
	writeSyntheticRecording(t, dataDir, recordingSpec{
		id: "no-off", frames: 30, onIdx: 5, offIdx: 20, dropFlashOff: true,
	})

	state := NewRunState("run-1", dataDir, outDir, 2, testEngineConfig())
	runner := NewBatchRunner(testLogger())

	require.NoError(t, runner.Run(context.Background(), state))

	assert.Len(t, state.Results(), 2)
	require.Len(t, state.Rejected(), 1)
	assert.Equal(t, "lossy", state.Rejected()[0].RecordingID)
	assert.InDelta(t, 0.3, state.Rejected()[0].DataLoss, 1e-12)

	require.Len(t, state.Failures(), 1)
	failure := state.Failures()[0]
	assert.Equal(t, apperrors.CodeMissingStimulusEvent, apperrors.Code(failure))
	assert.Equal(t, "no-off", apperrors.RecordingID(failure))

	for _, name := range []string{
		"pipeline_summary.csv", "biomarkers.csv", "biomarkers.xlsx",
		"good-a_series.csv", "good-b_series.csv",
	} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
	// Failed recordings never get a series file.
	_, err := os.Stat(filepath.Join(outDir, "no-off_series.csv"))
	assert.True(t, os.IsNotExist(err))

	for _, id := range []string{StepIDDiscover, StepIDCompute, StepIDExport} {
		assert.Equal(t, StepStatusCompleted, state.StepState(id, "").CurrentStatus(), id)
	}
}

func TestBatchRunIsolatesCorruptRecording(t *testing.T) {
	dataDir := t.TempDir()
	outDir := t.TempDir()

	writeSyntheticRecording(t, dataDir, recordingSpec{id: "good", frames: 61, onIdx: 20, offIdx: 50})
	corruptDir := filepath.Join(dataDir, "corrupt")
	require.NoError(t, os.MkdirAll(corruptDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(corruptDir, "corrupt_plr_landmarks.csv"),
		[]byte("timestamp,retcode\nnot-a-time,OK\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(corruptDir, "corrupt_plr_protocol.csv"),
		[]byte("time,event\n"), 0o644))

	state := NewRunState("run-2", dataDir, outDir, 1, testEngineConfig())
	require.NoError(t, NewBatchRunner(testLogger()).Run(context.Background(), state))

	assert.Len(t, state.Results(), 1)
	require.Len(t, state.Failures(), 1)
	assert.Equal(t, apperrors.CodeLoadFailed, apperrors.Code(state.Failures()[0]))
	assert.Equal(t, "corrupt", apperrors.RecordingID(state.Failures()[0]))
}

func TestRunnerValidationFailureStopsRun(t *testing.T) {
	state := NewRunState("run-3", "", t.TempDir(), 1, testEngineConfig())
	err := NewBatchRunner(testLogger()).Run(context.Background(), state)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Equal(t, StepStatusFailed, state.StepState(StepIDDiscover, "").CurrentStatus())
	// Later steps never started.
	assert.Equal(t, StepStatusPending, state.StepState(StepIDCompute, "Analyze recordings").CurrentStatus())
}

func TestRunnerHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state := NewRunState("run-4", t.TempDir(), t.TempDir(), 1, testEngineConfig())
	err := NewBatchRunner(testLogger()).Run(ctx, state)
	require.ErrorIs(t, err, context.Canceled)
}

func TestComputeStepLogsRejection(t *testing.T) {
	dataDir := t.TempDir()
	writeSyntheticRecording(t, dataDir, recordingSpec{
		id: "lossy", frames: 10, onIdx: 2, offIdx: 7,
		invalidFrames: map[int]bool{1: true, 4: true, 8: true},
	})

	logger, handler := testutil.NewTestLogger(t)
	state := NewRunState("run-log", dataDir, t.TempDir(), 1, testEngineConfig())
	state.SetRecordingIDs([]string{"lossy"})

	require.NoError(t, NewComputeStep(logger).Execute(context.Background(), state))

	testutil.AssertLogContains(t, handler, slog.LevelWarn, "rejected for data loss")
	testutil.AssertLogAttr(t, handler, "recording_id", "lossy")
}

func TestDiscoverStepEmptyDirectory(t *testing.T) {
	state := NewRunState("run-5", t.TempDir(), t.TempDir(), 1, testEngineConfig())
	step := NewDiscoverStep(testLogger())

	require.NoError(t, step.Execute(context.Background(), state))
	assert.Empty(t, state.RecordingIDs())
}
