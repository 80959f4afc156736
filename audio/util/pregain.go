package util

import (
	"math"

	"github.com/golang/glog"
)

// PreGainParams tune the PreGain control loop.
type PreGainParams struct {
	// A and B are the coefficients of the one pole RMS follower.
	A, B float64
	// Kp and Kd are the proportional and derivative gains.
	Kp, Kd float64
}

// DefaultPreGainParams settle in roughly a second of 1024 sample frames.
var DefaultPreGainParams = PreGainParams{A: 0.05, B: 0.95, Kp: 0.01, Kd: 0.04}

// PreGain scales frames so that their RMS energy drifts toward 1.
type PreGain struct {
	params PreGainParams
	rms    float64
	gain   float64
	err    float64
}

// NewPreGain returns a new PreGain stage.
func NewPreGain(params PreGainParams) *PreGain {
	return &PreGain{
		params: params,
		gain:   1.0,
		rms:    1.0,
	}
}

// Gain is the gain that will be applied to the next frame.
func (p *PreGain) Gain() float64 {
	return p.gain
}

// Apply pre-gain to the frame in place.
func (p *PreGain) Apply(frame []float64) {
	if len(frame) == 0 {
		return
	}
	sum := 0.0
	for i := range frame {
		frame[i] *= p.gain
		sum += frame[i] * frame[i]
	}

	rms := math.Sqrt(2.0 * sum / float64(len(frame)))
	p.rms = p.params.A*rms + p.params.B*p.rms

	e := logCurve(0.0000001 + p.rms)
	u := p.params.Kp*e + p.params.Kd*(e-p.err)
	p.gain = math.Max(1e-6, math.Min(1e6, p.gain*math.Exp2(u)))
	p.err = e

	if glog.V(3) {
		glog.Infof("rms = %.02f\tpregain = %.02f", p.rms, p.gain)
	}
}

// logCurve is positive below 1 and negative above it.
func logCurve(x float64) float64 {
	return -math.Log2(math.Abs(x))
}
