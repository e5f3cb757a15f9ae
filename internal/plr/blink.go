package plr

import (
	"fmt"
)

// BlinkConfig parametrizes blink detection.
type BlinkConfig struct {
	// SGWindow and SGPolyOrder configure the Savitzky-Golay
	// differentiator producing the eyelid speed signal.
	SGWindow    int
	SGPolyOrder int

	// OpennessThreshold flags sustained near-closed frames.
	OpennessThreshold float64

	// SpeedThreshold flags fast eyelid transitions, in openness-index
	// units per frame.
	SpeedThreshold float64

	// IntervalWindow is the rolling-median window that closes short
	// gaps inside a blink run and drops isolated single-frame
	// candidates.
	IntervalWindow int
}

// BlinkMask flags the frames judged to lie within a blink for one eye.
// Applying the mask invalidates every per-eye derived sample at the
// flagged frames; the mask itself is retained as a diagnostic column.
type BlinkMask struct {
	Eye     Eye
	InBlink []bool
}

// DetectBlinks derives the blink mask from the eye-openness index.
// A frame is a raw candidate when the eyelid moves faster than the
// speed threshold or the eye is more closed than the openness
// threshold; the candidate run is then smoothed with a centered rolling
// boolean median.
//
// The filter window must be shorter than the series; violating that is
// a configuration error, not a reason to truncate.
func DetectBlinks(openness Series, eye Eye, cfg BlinkConfig) (*BlinkMask, error) {
	if cfg.IntervalWindow < 1 {
		return nil, fmt.Errorf("%w: blink interval window %d must be positive", ErrFilterWindow, cfg.IntervalWindow)
	}
	sg, err := NewSavGol(cfg.SGWindow, cfg.SGPolyOrder, 1)
	if err != nil {
		return nil, fmt.Errorf("blink speed filter: %w", err)
	}

	speed, err := sg.Filter(openness)
	if err != nil {
		return nil, fmt.Errorf("blink speed filter: %w", err)
	}

	// Raw candidates. Missing speed or openness never triggers on its
	// own; invalid frames are already excluded from every derived
	// series.
	n := openness.Len()
	candidate := make([]bool, n)
	for i := 0; i < n; i++ {
		if v, ok := speed.At(i); ok && abs(v) > cfg.SpeedThreshold {
			candidate[i] = true
			continue
		}
		if v, ok := openness.At(i); ok && v < cfg.OpennessThreshold {
			candidate[i] = true
		}
	}

	return &BlinkMask{Eye: eye, InBlink: rollingBoolMedian(candidate, cfg.IntervalWindow)}, nil
}

// Apply invalidates the masked frames in every given series. Re-applying
// the mask to an already-masked series is a no-op.
func (m *BlinkMask) Apply(series ...*Series) {
	for _, s := range series {
		for i, blink := range m.InBlink {
			if blink && i < s.Len() {
				s.SetMissing(i)
			}
		}
	}
}

// Count returns the number of masked frames.
func (m *BlinkMask) Count() int {
	n := 0
	for _, b := range m.InBlink {
		if b {
			n++
		}
	}
	return n
}

// rollingBoolMedian is a centered boolean median: a frame is kept when
// at least half of its window is set. Frames near the series edges use
// the shrunken centered window rather than an undefined value; ties
// promote to blink, mirroring the 0.5 median of an even split.
func rollingBoolMedian(in []bool, window int) []bool {
	n := len(in)
	out := make([]bool, n)
	lo := (window - 1) / 2
	hi := window / 2
	for i := 0; i < n; i++ {
		from := i - lo
		if from < 0 {
			from = 0
		}
		to := i + hi
		if to > n-1 {
			to = n - 1
		}
		set := 0
		for j := from; j <= to; j++ {
			if in[j] {
				set++
			}
		}
		out[i] = 2*set >= to-from+1
	}
	return out
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
