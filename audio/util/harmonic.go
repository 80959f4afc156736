package util

import (
	"fmt"
	"math"
)

// JustSteps is the five step scale used for quantizing motion into pitch.
var JustSteps = []float64{
	1.0 / 1,
	32.0 / 27,
	4.0 / 3,
	3.0 / 2,
	16.0 / 9,
}

// Quantizer snaps a continuous control value onto a fixed set of frequency
// ratios repeated over octaves. Steps must be ascending within one octave.
type Quantizer struct {
	Steps []float64
}

// DefaultQuantizer quantizes onto JustSteps.
var DefaultQuantizer = &Quantizer{Steps: JustSteps}

// Ratio rounds v to the nearest step index and returns the frequency ratio for
// it. Every len(Steps) indices the ratio doubles. Negative indices give the
// reciprocal of the matching positive ratio, so Ratio(-v)*Ratio(v) == 1.
// Indices beyond the float64 range give +Inf, or 0 when negative.
func (q *Quantizer) Ratio(v float64) float64 {
	if !finite(v) {
		panic(fmt.Sprintf("quantizer: non-finite input %v", v))
	}

	step := math.Round(v)
	a := math.Abs(step)
	n := float64(len(q.Steps))

	// past a few thousand octaves Ldexp has long since overflowed to +Inf
	octave := math.Min(math.Floor(a/n), 4096)
	ratio := math.Ldexp(q.Steps[int(math.Mod(a, n))], int(octave))
	if step < 0 {
		return 1 / ratio
	}
	return ratio
}

// Ratio quantizes v with the DefaultQuantizer.
func Ratio(v float64) float64 {
	return DefaultQuantizer.Ratio(v)
}
