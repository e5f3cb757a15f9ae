package plr

import "time"

// syntheticFrame builds a frame whose landmark pairs realize the given
// pupil, iris and eyelid-gap pixel distances, identically for both eyes.
func syntheticFrame(ts time.Time, retcode string, pupilPx, irisPx, gapPx float64) Frame {
	f := Frame{Timestamp: ts, Retcode: retcode}
	for _, lm := range []*[LandmarkCount + 1]Point{&f.Left, &f.Right} {
		// Pupil estimates: horz (7,10), vert (9,23), diag1 (22,24), diag2 (25,23).
		lm[7] = Point{0, 0}
		lm[10] = Point{pupilPx, 0}
		lm[9] = Point{0, 0}
		lm[23] = Point{0, pupilPx}
		lm[22] = Point{0, 0}
		lm[24] = Point{pupilPx, 0}
		lm[25] = Point{0, 0}

		// Iris reference (6,11).
		lm[6] = Point{0, 0}
		lm[11] = Point{irisPx, 0}

		// Eyelid gaps.
		for _, pair := range LidGapPairs {
			lm[pair.A] = Point{0, 0}
			lm[pair.B] = Point{0, gapPx}
		}
	}
	return f
}

// syntheticRecording builds n frames dt apart with constant geometry,
// flashing between frame indices onIdx and offIdx.
func syntheticRecording(id string, n int, dt time.Duration, onIdx, offIdx int, pupilPx, irisPx, gapPx float64) *Recording {
	t0 := time.Date(2024, 5, 20, 9, 30, 0, 0, time.UTC)
	rec := &Recording{ID: id}
	for i := 0; i < n; i++ {
		rec.Frames = append(rec.Frames, syntheticFrame(t0.Add(time.Duration(i)*dt), RetcodeOK, pupilPx, irisPx, gapPx))
	}
	rec.Events = []Event{
		{Time: t0.Add(time.Duration(onIdx) * dt), Name: EventFlashOn},
		{Time: t0.Add(time.Duration(offIdx) * dt), Name: EventFlashOff},
	}
	return rec
}

// engineTestConfig is a baseline engine configuration usable with the
// synthetic recordings above.
func engineTestConfig() Config {
	return Config{
		NominalIrisMM: 11.7,
		Unit:          UnitSeconds,
		Blink: BlinkConfig{
			SGWindow:          5,
			SGPolyOrder:       2,
			OpennessThreshold: 0.3,
			SpeedThreshold:    0.5,
			IntervalWindow:    3,
		},
		Smoothing: SmoothingConfig{
			Window: 5,
			Shape:  WindowUniform,
			Stable: StableInterval{Start: -1.5, End: -0.5},
		},
		Constriction: ConstrictionConfig{
			VelocityThreshold: -0.5,
			SGWindow:          5,
			SGPolyOrder:       2,
		},
		DataLossWarning: 0.1,
		DataLossError:   0.25,
	}
}
