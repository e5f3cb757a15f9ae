package plr

import (
	"fmt"
	"math"
)

// WindowShape selects the kernel weighting of the smoothing window.
type WindowShape string

const (
	WindowUniform    WindowShape = "uniform"
	WindowTriangular WindowShape = "triangular"
	WindowGaussian   WindowShape = "gaussian"
)

// Smooth applies a centered weighted moving average over the calibrated
// pupil series. The edge policy is explicit: a frame whose centered
// window does not fully fit inside the series, or whose window contains
// a missing sample, yields a missing output. Nothing is zero-filled.
func Smooth(s Series, window int, shape WindowShape) (Series, error) {
	if window < 1 {
		return Series{}, fmt.Errorf("%w: smoothing window %d must be positive", ErrFilterWindow, window)
	}
	if s.Len() < window {
		return Series{}, fmt.Errorf("%w: smoothing window %d exceeds series length %d", ErrFilterWindow, window, s.Len())
	}

	kernel, err := smoothingKernel(window, shape)
	if err != nil {
		return Series{}, err
	}

	// Centered span; an even window is left-biased by one frame.
	lo := (window - 1) / 2
	hi := window / 2

	out := NewSeries(s.Times)
	for i := range s.Samples {
		if i-lo < 0 || i+hi > s.Len()-1 {
			continue
		}
		acc := 0.0
		valid := true
		for k := 0; k < window; k++ {
			v, ok := s.At(i - lo + k)
			if !ok {
				valid = false
				break
			}
			acc += kernel[k] * v
		}
		if valid {
			out.Set(i, acc)
		}
	}
	return out, nil
}

// smoothingKernel returns the normalized window weights. The gaussian
// kernel uses a standard deviation of a quarter window, truncated at
// the window bounds.
func smoothingKernel(window int, shape WindowShape) ([]float64, error) {
	w := make([]float64, window)
	center := float64(window-1) / 2

	switch shape {
	case WindowUniform, "":
		for i := range w {
			w[i] = 1
		}
	case WindowTriangular:
		for i := range w {
			w[i] = 1 - abs(float64(i)-center)/(center+1)
		}
	case WindowGaussian:
		sigma := float64(window) / 4
		for i := range w {
			d := (float64(i) - center) / sigma
			w[i] = math.Exp(-d * d / 2)
		}
	default:
		return nil, fmt.Errorf("unknown smoothing window type %q", shape)
	}

	sum := 0.0
	for _, v := range w {
		sum += v
	}
	for i := range w {
		w[i] /= sum
	}
	return w, nil
}
