package util

import (
	"fmt"
	"math"
)

// Range is a closed output interval [Min, Max].
type Range struct {
	Min, Max float64
}

// Mid is the center of the range.
func (r Range) Mid() float64 {
	return (r.Min + r.Max) / 2
}

// Span is the width of the range.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// PeriodicClamp maps an unbounded value into r with a cosine wrap instead of a
// hard clamp. The output is continuous in value and periodic with period 4*max:
// value 0 maps to r.Max, value 2*max to r.Min and 4*max back to r.Max.
//
// max must be non-zero and finite, and value must be finite.
func PeriodicClamp(value, max float64, r Range) float64 {
	if max == 0 || !finite(max) {
		panic(fmt.Sprintf("periodic clamp: invalid max %v", max))
	}
	if !finite(value) {
		panic(fmt.Sprintf("periodic clamp: non-finite value %v", value))
	}

	v := value / max * math.Pi / 2
	out := r.Mid() + math.Cos(v)*r.Span()/2

	// rounding can put the extremes a hair outside the range
	lo, hi := r.Min, r.Max
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(hi, out))
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
