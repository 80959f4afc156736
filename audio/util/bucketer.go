package util

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Scale maps a frequency onto a perceptual axis and back.
type Scale interface {
	To(float64) float64
	From(float64) float64
}

type melScale struct{}

// MelScale spaces buckets evenly in mels.
var MelScale *melScale

func (s *melScale) To(val float64) float64 {
	return 1127 * math.Log(1+val/700)
}

func (s *melScale) From(val float64) float64 {
	return 700 * (math.Exp(val/1127.0) - 1)
}

type logScale struct{ base float64 }

// LogScale2 spaces buckets evenly in octaves.
var LogScale2 = &logScale{2}

func (s *logScale) To(val float64) float64 {
	return math.Log(val) / math.Log(s.base)
}

func (s *logScale) From(val float64) float64 {
	return math.Pow(s.base, val)
}

// Bucketer sums a linear spectrum frame into N buckets spaced on a Scale.
// Frame bins are assumed to span [0, fMax] linearly.
type Bucketer struct {
	Buckets int
	Size    int
	Scale   Scale

	// N-1 bin indices that split a frame into N buckets
	indices []int
}

// NewBucketer creates a Bucketer with bucket edges spaced evenly on the scale
// between fMin and fMax.
func NewBucketer(scale Scale, buckets, frameSize int, fMin, fMax float64) *Bucketer {
	if buckets < 1 || frameSize < buckets {
		panic(fmt.Sprintf("bucketer: cannot split %d bins into %d buckets", frameSize, buckets))
	}
	sMin := scale.To(fMin)
	sMax := scale.To(fMax)
	space := (sMax - sMin) / float64(buckets)

	indices := make([]int, buckets-1)
	prev := 0
	for i := range indices {
		f := scale.From(sMin + float64(i+1)*space)
		idx := int(math.Ceil(float64(frameSize) * f / fMax))
		if idx < prev {
			idx = prev
		}
		if idx > frameSize {
			idx = frameSize
		}
		indices[i] = idx
		prev = idx
	}
	return &Bucketer{
		Buckets: buckets,
		Size:    frameSize,
		Scale:   scale,
		indices: indices,
	}
}

// Bucket sums the frame into buckets. The first bucket also takes every bin
// below fMin so that no energy is lost.
func (b *Bucketer) Bucket(frame []float64) []float64 {
	if len(frame) != b.Size {
		panic(fmt.Sprintf("frame size %d does not match bucket size %d", len(frame), b.Size))
	}
	buckets := make([]float64, b.Buckets)
	for i := range buckets {
		start, stop := 0, len(frame)
		if i > 0 {
			start = b.indices[i-1]
		}
		if i < len(buckets)-1 {
			stop = b.indices[i]
		}
		buckets[i] = floats.Sum(frame[start:stop])
	}
	return buckets
}

// Band returns the bucket that frame bin i is summed into.
func (b *Bucketer) Band(i int) int {
	for j, idx := range b.indices {
		if i < idx {
			return j
		}
	}
	return b.Buckets - 1
}
