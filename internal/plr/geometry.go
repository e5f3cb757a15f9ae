package plr

// LandmarkPair names the two landmarks whose separation estimates a
// physical distance, with a human-readable label for diagnostics.
type LandmarkPair struct {
	A     int
	B     int
	Label string
}

// Landmark-pair tables matching the recording format. Four independent
// pupil-diameter estimates are averaged to tolerate per-landmark jitter;
// the iris pair provides the self-calibration reference; the five eyelid
// gaps feed the openness index.
var (
	PupilPairs = [4]LandmarkPair{
		{7, 10, "horz"},   // horizontal diameter, inner to outer edge
		{9, 23, "vert"},   // vertical diameter, bottom to top-outer
		{22, 24, "diag1"}, // bottom-outer to top-inner
		{25, 23, "diag2"}, // bottom-inner to top-outer
	}

	IrisPair = LandmarkPair{6, 11, "iris"} // horizontal iris diameter

	LidGapPairs = [5]LandmarkPair{
		{12, 17, "gap_outer"},
		{13, 18, "gap_mid_outer"},
		{14, 19, "gap_center"},
		{15, 20, "gap_mid_inner"},
		{16, 21, "gap_inner"},
	}
)

// Geometry holds the per-eye pixel-space measurement series derived
// from one aligned recording. All series share the recording's
// elapsed-time index.
type Geometry struct {
	Eye Eye

	// PupilEstimates are the four independent pupil-diameter series,
	// ordered as PupilPairs.
	PupilEstimates [4]Series

	// IrisPx is the iris-diameter series used for calibration.
	IrisPx Series

	// LidGaps are the five eyelid-gap series, ordered as LidGapPairs.
	LidGaps [5]Series

	// PupilPx is the mean of the valid pupil-diameter estimates.
	PupilPx Series

	// Openness is the dimensionless eye-openness index: the mean across
	// the gap series of each series divided by its own recording-wide
	// maximum. The scale is recording-relative, not absolute.
	Openness Series
}

// MeasureGeometry computes every landmark-pair distance series for one
// eye. Frames whose retcode is not OK contribute no value to any series.
func MeasureGeometry(a *Aligned, eye Eye) *Geometry {
	g := &Geometry{Eye: eye}

	for i, pair := range PupilPairs {
		g.PupilEstimates[i] = pairDistances(a, eye, pair)
	}
	g.IrisPx = pairDistances(a, eye, IrisPair)
	for i, pair := range LidGapPairs {
		g.LidGaps[i] = pairDistances(a, eye, pair)
	}

	g.PupilPx = meanAcross(a.Elapsed, g.PupilEstimates[:])
	g.Openness = opennessIndex(a.Elapsed, g.LidGaps[:])
	return g
}

// Series returns every series of g, for callers that treat them
// uniformly (blink masking, export).
func (g *Geometry) Series() []*Series {
	out := make([]*Series, 0, len(g.PupilEstimates)+len(g.LidGaps)+3)
	for i := range g.PupilEstimates {
		out = append(out, &g.PupilEstimates[i])
	}
	out = append(out, &g.IrisPx)
	for i := range g.LidGaps {
		out = append(out, &g.LidGaps[i])
	}
	out = append(out, &g.PupilPx, &g.Openness)
	return out
}

func pairDistances(a *Aligned, eye Eye, pair LandmarkPair) Series {
	s := NewSeries(a.Elapsed)
	for i := range a.Recording.Frames {
		f := &a.Recording.Frames[i]
		if !f.OK() {
			continue
		}
		lm := f.Landmarks(eye)
		s.Set(i, lm[pair.A].Dist(lm[pair.B]))
	}
	return s
}

// meanAcross averages the parallel series frame-wise over their valid
// samples; a frame with no valid sample stays missing.
func meanAcross(times []float64, parts []Series) Series {
	out := NewSeries(times)
	for i := range times {
		sum := 0.0
		n := 0
		for _, p := range parts {
			if v, ok := p.At(i); ok {
				sum += v
				n++
			}
		}
		if n > 0 {
			out.Set(i, sum/float64(n))
		}
	}
	return out
}

// opennessIndex self-normalizes each gap series by its recording-wide
// maximum before averaging, so each metric spans roughly [0, 1]. A gap
// series with no valid samples, or a zero maximum, contributes nothing.
func opennessIndex(times []float64, gaps []Series) Series {
	normalized := make([]Series, 0, len(gaps))
	for _, gap := range gaps {
		max := gap.Max()
		if !max.Valid || max.Value == 0 {
			continue
		}
		n := NewSeries(times)
		for i := range times {
			if v, ok := gap.At(i); ok {
				n.Set(i, v/max.Value)
			}
		}
		normalized = append(normalized, n)
	}
	return meanAcross(times, normalized)
}
