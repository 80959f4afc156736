package util

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ColorMap is a gradient defined by keypoints sorted by Pos in [0,1].
type ColorMap []struct {
	Col colorful.Color
	Pos float64
}

// At returns an HCL blend between the two keypoints around t. Values outside
// [0,1] (and NaN) are pinned to the ends of the gradient.
func (g ColorMap) At(t float64) colorful.Color {
	if math.IsNaN(t) || t <= g[0].Pos {
		return g[0].Col
	}
	if t >= g[len(g)-1].Pos {
		return g[len(g)-1].Col
	}
	for i := 0; i < len(g)-1; i++ {
		c1 := g[i]
		c2 := g[i+1]
		if c1.Pos <= t && t <= c2.Pos {
			t := (t - c1.Pos) / (c2.Pos - c1.Pos)
			return c1.Col.BlendHcl(c2.Col, t).Clamped()
		}
	}
	return g[len(g)-1].Col
}

func mustParseHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic("MustParseHex: " + err.Error())
	}
	return c
}

// NewSpectrumColorMap runs from a dark violet for silence to a pale yellow for
// loud bands.
func NewSpectrumColorMap() ColorMap {
	return ColorMap{
		{mustParseHex("#000004"), 0.0},
		{mustParseHex("#3b0f70"), 0.2},
		{mustParseHex("#8c2981"), 0.4},
		{mustParseHex("#de4968"), 0.6},
		{mustParseHex("#fe9f6d"), 0.8},
		{mustParseHex("#fcfdbf"), 1.0},
	}
}
