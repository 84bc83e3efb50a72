// Package resp provides elementary frequency-domain transfer-function
// terms and their composition into a single evaluable instrument
// response. All terms are immutable and safe for concurrent use.
package resp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Term is a transfer function evaluable on a grid of frequencies in Hz.
type Term interface {
	// Evaluate returns the complex frequency response at each frequency.
	Evaluate(freqs []float64) []complex128
}

// EvaluateOne evaluates a term at a single frequency.
func EvaluateOne(t Term, freq float64) complex128 {
	return t.Evaluate([]float64{freq})[0]
}

// PoleZero is a pole-zero transfer function in the Laplace domain with
// angular frequency convention (radians per second):
//
//	H(s) = Constant * prod(s - zero_i) / prod(s - pole_j),  s = 2πf i
type PoleZero struct {
	Constant float64
	Zeros    []complex128
	Poles    []complex128
}

func (pz PoleZero) Evaluate(freqs []float64) []complex128 {
	out := make([]complex128, len(freqs))
	for i, f := range freqs {
		s := complex(0.0, 2.0*math.Pi*f)
		v := complex(pz.Constant, 0.0)
		for _, z := range pz.Zeros {
			v *= s - z
		}
		for _, p := range pz.Poles {
			v /= s - p
		}
		out[i] = v
	}
	return out
}

// Gain is a frequency-independent scalar term.
type Gain struct {
	Value float64
}

func (g Gain) Evaluate(freqs []float64) []complex128 {
	out := make([]complex128, len(freqs))
	for i := range out {
		out[i] = complex(g.Value, 0.0)
	}
	return out
}

// Integration integrates the input signal Order times:
// H(s) = 1 / s^Order with s = 2πf i.
type Integration struct {
	Order int
}

func (r Integration) Evaluate(freqs []float64) []complex128 {
	out := make([]complex128, len(freqs))
	for i, f := range freqs {
		s := complex(0.0, 2.0*math.Pi*f)
		v := complex(1.0, 0.0)
		for n := 0; n < r.Order; n++ {
			v /= s
		}
		out[i] = v
	}
	return out
}

// Differentiation differentiates the input signal Order times:
// H(s) = s^Order with s = 2πf i.
type Differentiation struct {
	Order int
}

func (r Differentiation) Evaluate(freqs []float64) []complex128 {
	out := make([]complex128, len(freqs))
	for i, f := range freqs {
		s := complex(0.0, 2.0*math.Pi*f)
		v := complex(1.0, 0.0)
		for n := 0; n < r.Order; n++ {
			v *= s
		}
		out[i] = v
	}
	return out
}

// Multiply is the product of its member terms. An empty Multiply is the
// identity response.
type Multiply struct {
	Terms []Term
}

func (m Multiply) Evaluate(freqs []float64) []complex128 {
	out := make([]complex128, len(freqs))
	for i := range out {
		out[i] = complex(1.0, 0.0)
	}
	for _, t := range m.Terms {
		part := t.Evaluate(freqs)
		for i := range out {
			out[i] *= part[i]
		}
	}
	return out
}

// LinearGrid returns n frequencies evenly spaced over [fmin, fmax].
func LinearGrid(fmin, fmax float64, n int) []float64 {
	return floats.Span(make([]float64, n), fmin, fmax)
}

// LogGrid returns n frequencies logarithmically spaced over [fmin, fmax].
// Both bounds must be positive.
func LogGrid(fmin, fmax float64, n int) []float64 {
	return floats.LogSpan(make([]float64, n), fmin, fmax)
}

// Amplitudes returns |H(f)| for each value of an evaluated response.
func Amplitudes(values []complex128) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = cmplxAbs(v)
	}
	return out
}

// Phases returns arg(H(f)) in radians for each value of an evaluated
// response.
func Phases(values []complex128) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Atan2(imag(v), real(v))
	}
	return out
}

func cmplxAbs(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}
