package plr

import "math"

// StableInterval is an elapsed-time interval assumed free of
// stimulus-driven pupil movement, typically spanning the pre-flash
// baseline. Signal quality is scored inside it.
type StableInterval struct {
	Start float64
	End   float64
}

// SignalQuality scores residual high-frequency noise, raw versus
// smoothed. Both scores are RMS successive differences: non-negative,
// lower is better, zero for a perfectly constant series. The scores
// indicate data quality; they are not a pass/fail gate by themselves.
type SignalQuality struct {
	Raw    float64
	Smooth float64
}

// ScoreSignalQuality computes the per-eye RMS successive difference of
// the raw and smoothed pupil series over the stable interval, averaged
// across the contributing eyes. An eye with no valid successive pair
// inside the interval carries no information and is left out of the
// average rather than entering it as a spurious perfect score; when
// neither eye contributes, the score is zero.
func ScoreSignalQuality(rawLeft, rawRight, smoothLeft, smoothRight Series, iv StableInterval) SignalQuality {
	return SignalQuality{
		Raw:    meanOverEyes(rawLeft.Slice(iv.Start, iv.End), rawRight.Slice(iv.Start, iv.End)),
		Smooth: meanOverEyes(smoothLeft.Slice(iv.Start, iv.End), smoothRight.Slice(iv.Start, iv.End)),
	}
}

func meanOverEyes(left, right Series) float64 {
	sum := 0.0
	eyes := 0
	for _, s := range []Series{left, right} {
		if v, ok := rmsSuccessiveDiff(s); ok {
			sum += v
			eyes++
		}
	}
	if eyes == 0 {
		return 0
	}
	return sum / float64(eyes)
}

// rmsSuccessiveDiff is the root of the mean of squared first
// differences, taken over consecutive sample pairs where both values
// are valid. ok is false when the series holds no such pair.
func rmsSuccessiveDiff(s Series) (v float64, ok bool) {
	sum := 0.0
	n := 0
	for i := 1; i < s.Len(); i++ {
		a, okA := s.At(i - 1)
		b, okB := s.At(i)
		if !okA || !okB {
			continue
		}
		d := b - a
		sum += d * d
		n++
	}
	if n == 0 {
		return 0, false
	}
	return math.Sqrt(sum / float64(n)), true
}
