package plr

// Calibrate converts the pixel pupil-diameter series to millimetres
// using the self-referencing iris measurement:
//
//	pupil_mm = pupil_px / iris_px * nominalIrisMM
//
// Both measures scale together with camera distance, so the ratio
// corrects for frame-to-frame distance variation. The nominal iris
// diameter is a population constant, not measured per subject.
//
// The output is missing wherever either input is missing or the iris
// diameter is zero.
func Calibrate(pupilPx, irisPx Series, nominalIrisMM float64) Series {
	out := NewSeries(pupilPx.Times)
	for i := range pupilPx.Samples {
		p, ok := pupilPx.At(i)
		if !ok {
			continue
		}
		ir, ok := irisPx.At(i)
		if !ok || ir == 0 {
			continue
		}
		out.Set(i, p/ir*nominalIrisMM)
	}
	return out
}
