// Package fft turns blocks of rendered audio into log scaled spectrum columns
// for display.
package fft

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"github.com/peragwin/gyrotone/audio/util"
)

// Analyser computes a bucketed power spectrum of fixed size frames.
type Analyser struct {
	SampleRate float64
	Size       int
	Bands      int

	window   []float64
	pregain  *util.PreGain
	bucketer *util.Bucketer
}

// NewAnalyser creates an analyser for frames of size samples that reports
// bands buckets spaced in octaves from fMin up to Nyquist.
func NewAnalyser(sampleRate float64, size, bands int, fMin float64) (*Analyser, error) {
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("analyser: invalid sample rate %v", sampleRate)
	}
	if size < 2*bands || bands < 1 {
		return nil, fmt.Errorf("analyser: cannot split %d samples into %d bands", size, bands)
	}
	if !(fMin > 0) || fMin >= sampleRate/2 {
		return nil, fmt.Errorf("analyser: invalid minimum frequency %v", fMin)
	}
	return &Analyser{
		SampleRate: sampleRate,
		Size:       size,
		Bands:      bands,
		window:     window.Hamming(size),
		pregain:    util.NewPreGain(util.DefaultPreGainParams),
		bucketer:   util.NewBucketer(util.LogScale2, bands, size/2, fMin, sampleRate/2),
	}, nil
}

// Band returns the band that holds frequency f.
func (a *Analyser) Band(f float64) int {
	bin := int(f / (a.SampleRate / 2) * float64(a.Size/2))
	return a.bucketer.Band(bin)
}

// Spectrum returns the log power of frame summed into bands. The frame is not
// modified. Spectrum is not safe for concurrent use because the pregain stage
// keeps state between frames.
func (a *Analyser) Spectrum(frame []float64) []float64 {
	if len(frame) != a.Size {
		panic(fmt.Sprintf("analyser: frame size %d, want %d", len(frame), a.Size))
	}
	x := make([]float64, a.Size)
	copy(x, frame)
	a.pregain.Apply(x)
	for i := range x {
		x[i] *= a.window[i]
	}

	Fx := fft.FFTReal(x)
	Px := make([]float64, a.Size/2)
	N := float64(a.Size)
	for i := range Px {
		Px[i] = math.Log(1 + real(cmplx.Conj(Fx[i])*Fx[i])/N)
	}
	return a.bucketer.Bucket(Px)
}
