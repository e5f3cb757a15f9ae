package plr

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// ErrFilterWindow reports Savitzky-Golay parameters that cannot produce
// a valid windowed fit. It is a configuration error, never a reason to
// silently truncate the window.
var ErrFilterWindow = errors.New("invalid filter window")

// SavGol is a Savitzky-Golay filter: a windowed local-polynomial
// least-squares smoother with derivative support. Differentiating
// through the polynomial fit denoises and differentiates in one step,
// avoiding the jitter amplification of a naive finite difference.
//
// Derivatives are taken with respect to the sample index; callers that
// need a physical rate divide by the local sample spacing.
type SavGol struct {
	window int
	order  int
	deriv  int

	// weights[p] evaluates the deriv-th derivative of the window's
	// fitted polynomial at window offset p as a dot product with the
	// window's samples. Interior frames use the centered row; frames
	// within half a window of either series edge reuse the first or
	// last full window at the matching offset.
	weights [][]float64
}

// NewSavGol builds a filter for the given window length, polynomial
// order and derivative order. The window must be odd and at least
// order+1; the derivative order must not exceed the polynomial order.
func NewSavGol(window, order, deriv int) (*SavGol, error) {
	if window < 1 || window%2 == 0 {
		return nil, fmt.Errorf("%w: window %d must be positive and odd", ErrFilterWindow, window)
	}
	if order < 0 || window < order+1 {
		return nil, fmt.Errorf("%w: window %d must be at least polynomial order %d + 1", ErrFilterWindow, window, order)
	}
	if deriv < 0 || deriv > order {
		return nil, fmt.Errorf("%w: derivative order %d exceeds polynomial order %d", ErrFilterWindow, deriv, order)
	}

	sg := &SavGol{window: window, order: order, deriv: deriv}
	sg.weights = fitWeights(window, order, deriv)
	return sg, nil
}

// Window returns the configured window length.
func (sg *SavGol) Window() int {
	return sg.window
}

// Filter applies the filter over the series. Any window containing a
// missing sample yields a missing output, matching the engine's
// missing-propagation rule. The series must be at least one window long.
func (sg *SavGol) Filter(s Series) (Series, error) {
	n := s.Len()
	if n < sg.window {
		return Series{}, fmt.Errorf("%w: window %d exceeds series length %d", ErrFilterWindow, sg.window, n)
	}

	half := sg.window / 2
	out := NewSeries(s.Times)
	for i := 0; i < n; i++ {
		base := i - half
		if base < 0 {
			base = 0
		}
		if base > n-sg.window {
			base = n - sg.window
		}
		w := sg.weights[i-base]

		acc := 0.0
		valid := true
		for k := 0; k < sg.window; k++ {
			v, ok := s.At(base + k)
			if !ok {
				valid = false
				break
			}
			acc += w[k] * v
		}
		if valid {
			out.Set(i, acc)
		}
	}
	return out, nil
}

// fitWeights precomputes, for every offset p inside the window, the
// linear weights that evaluate the deriv-th derivative of the window's
// least-squares polynomial at p. The pseudo-inverse of the Vandermonde
// design matrix is obtained from a QR factorization.
func fitWeights(window, order, deriv int) [][]float64 {
	half := window / 2

	a := mat.NewDense(window, order+1, nil)
	for t := 0; t < window; t++ {
		x := float64(t - half)
		pow := 1.0
		for j := 0; j <= order; j++ {
			a.Set(t, j, pow)
			pow *= x
		}
	}

	var qr mat.QR
	qr.Factorize(a)

	// pinv solves the least-squares problem for every unit input, giving
	// the (order+1)*window matrix mapping samples to fit coefficients.
	var pinv mat.Dense
	identity := mat.NewDiagDense(window, onesSlice(window))
	if err := qr.SolveTo(&pinv, false, identity); err != nil {
		// The design matrix has full column rank for every validated
		// window/order combination, so a failure here is a bug.
		panic(fmt.Sprintf("savgol: design matrix factorization failed: %v", err))
	}

	weights := make([][]float64, window)
	for p := 0; p < window; p++ {
		x := float64(p - half)
		row := make([]float64, window)
		for k := 0; k < window; k++ {
			acc := 0.0
			for j := deriv; j <= order; j++ {
				// d-th derivative of x^j evaluated at the offset.
				factor := 1.0
				for m := 0; m < deriv; m++ {
					factor *= float64(j - m)
				}
				acc += pinv.At(j, k) * factor * intPow(x, j-deriv)
			}
			row[k] = acc
		}
		weights[p] = row
	}
	return weights
}

func onesSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func intPow(x float64, n int) float64 {
	out := 1.0
	for i := 0; i < n; i++ {
		out *= x
	}
	return out
}

// localSpacing estimates the sample interval around frame i from the
// elapsed-time index, using a central difference where both neighbours
// exist and a one-sided difference at the series edges. This keeps
// derivative scaling correct under non-uniform sampling.
func localSpacing(times []float64, i int) float64 {
	n := len(times)
	switch {
	case n < 2:
		return 0
	case i == 0:
		return times[1] - times[0]
	case i == n-1:
		return times[n-1] - times[n-2]
	default:
		return (times[i+1] - times[i-1]) / 2
	}
}
