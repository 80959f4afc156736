package util

import (
	"math"
	"math/rand"
	"testing"
)

func TestPeriodicClampBounded(t *testing.T) {
	ranges := []Range{
		{-10, 10},
		{0.1, 0.9},
		{-1, 1},
		{3, 3},
	}
	for _, r := range ranges {
		for i := 0; i < 2000; i++ {
			v := (rand.Float64() - 0.5) * 1e5
			out := PeriodicClamp(v, 45, r)
			if out < r.Min || out > r.Max {
				t.Fatalf("PeriodicClamp(%v, 45, %v) = %v is out of range", v, r, out)
			}
		}
	}
}

func TestPeriodicClampShape(t *testing.T) {
	r := Range{-10, 10}
	max := 45.0

	cases := []struct {
		value, want float64
	}{
		{0, 10},
		{max, 0},
		{2 * max, -10},
		{3 * max, 0},
		{4 * max, 10},
		{-max, 0},
	}
	for _, c := range cases {
		if got := PeriodicClamp(c.value, max, r); math.Abs(got-c.want) > 1e-9 {
			t.Errorf("PeriodicClamp(%v) = %v, want %v", c.value, got, c.want)
		}
	}

	if a, b := PeriodicClamp(0, max, r), PeriodicClamp(4*max, max, r); math.Abs(a-b) > 1e-9 {
		t.Errorf("one full period should return to the start: %v != %v", a, b)
	}
	if a, b := PeriodicClamp(10, max, r), PeriodicClamp(-10, max, r); math.Abs(a-b) > 1e-12 {
		t.Errorf("mapping should be symmetric about zero: %v != %v", a, b)
	}
}

func TestPeriodicClampPreconditions(t *testing.T) {
	mustPanic := func(name string, f func()) {
		t.Helper()
		defer func() {
			if recover() == nil {
				t.Errorf("%s: expected panic", name)
			}
		}()
		f()
	}
	mustPanic("zero max", func() { PeriodicClamp(1, 0, Range{0, 1}) })
	mustPanic("nan max", func() { PeriodicClamp(1, math.NaN(), Range{0, 1}) })
	mustPanic("inf value", func() { PeriodicClamp(math.Inf(1), 1, Range{0, 1}) })
}
