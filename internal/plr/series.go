package plr

// Sample is one optionally-missing measurement. Missingness is explicit:
// derived series never carry NaN, a sample is either valid or it is not.
type Sample struct {
	Value float64
	Valid bool
}

// Missing returns an invalid sample.
func Missing() Sample {
	return Sample{}
}

// Value returns a valid sample holding v.
func Value(v float64) Sample {
	return Sample{Value: v, Valid: true}
}

// Series pairs an elapsed-time index with optionally-missing samples.
// Times are expressed in the recording's configured unit and are treated
// as sorted ascending for interval operations.
type Series struct {
	Times   []float64
	Samples []Sample
}

// NewSeries returns a series over the given index with every sample missing.
func NewSeries(times []float64) Series {
	return Series{Times: times, Samples: make([]Sample, len(times))}
}

// Len returns the number of indexed frames.
func (s Series) Len() int {
	return len(s.Samples)
}

// At returns the sample value at frame i and whether it is valid.
func (s Series) At(i int) (float64, bool) {
	sm := s.Samples[i]
	return sm.Value, sm.Valid
}

// Set stores a valid value at frame i.
func (s Series) Set(i int, v float64) {
	s.Samples[i] = Value(v)
}

// SetMissing invalidates the sample at frame i.
func (s Series) SetMissing(i int) {
	s.Samples[i] = Missing()
}

// ValidCount returns the number of valid samples.
func (s Series) ValidCount() int {
	n := 0
	for _, sm := range s.Samples {
		if sm.Valid {
			n++
		}
	}
	return n
}

// Slice returns the sub-series whose times fall inside [t0, t1]
// inclusive. The result shares backing storage with s.
func (s Series) Slice(t0, t1 float64) Series {
	lo := 0
	for lo < len(s.Times) && s.Times[lo] < t0 {
		lo++
	}
	hi := lo
	for hi < len(s.Times) && s.Times[hi] <= t1 {
		hi++
	}
	return Series{Times: s.Times[lo:hi], Samples: s.Samples[lo:hi]}
}

// Max returns the largest valid value, or a missing sample when the
// series holds no valid value.
func (s Series) Max() Sample {
	out := Missing()
	for _, sm := range s.Samples {
		if sm.Valid && (!out.Valid || sm.Value > out.Value) {
			out = sm
		}
	}
	return out
}

// MinIndex returns the frame index of the smallest valid value. Ties
// resolve to the earliest index. ok is false when the series holds no
// valid value.
func (s Series) MinIndex() (idx int, ok bool) {
	best := Missing()
	for i, sm := range s.Samples {
		if sm.Valid && (!best.Valid || sm.Value < best.Value) {
			best = sm
			idx = i
			ok = true
		}
	}
	return idx, ok
}

// Clone returns a deep copy of the series.
func (s Series) Clone() Series {
	out := Series{
		Times:   make([]float64, len(s.Times)),
		Samples: make([]Sample, len(s.Samples)),
	}
	copy(out.Times, s.Times)
	copy(out.Samples, s.Samples)
	return out
}
