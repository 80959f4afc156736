package util

import "testing"

func TestRingBuffer(t *testing.T) {
	rb := NewRing[float64](10)
	rb.Push(1, 2, 3, 4, 5, 6)
	rb.Push(7, 8, 9, 10, 11, 12)

	g := rb.Get(10)
	exp := []float64{3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	for i := range g {
		if g[i] != exp[i] {
			t.Fatal(exp, g)
		}
	}

	g = rb.GetOffset(10, 2)
	exp = []float64{11, 12, 3, 4, 5, 6, 7, 8, 9, 10}
	for i := range g {
		if g[i] != exp[i] {
			t.Fatal(exp, g)
		}
	}

	g = rb.GetOffset(10, -2)
	exp = []float64{5, 6, 7, 8, 9, 10, 11, 12, 3, 4}
	for i := range g {
		if g[i] != exp[i] {
			t.Fatal(exp, g)
		}
	}
}

func TestRingAt(t *testing.T) {
	rb := NewRing[int](3)
	rb.Push(1)
	rb.Push(2)
	if rb.Len() != 2 || rb.At(0) != 2 || rb.At(1) != 1 {
		t.Fatal("unexpected ring contents", rb.Values())
	}

	rb.Push(3, 4)
	if rb.Len() != 3 {
		t.Fatal("len should saturate at capacity, got", rb.Len())
	}
	if rb.At(0) != 4 || rb.At(2) != 2 {
		t.Fatal("oldest value was not overwritten", rb.Values())
	}

	rb.Discard(2)
	if rb.Len() != 1 || rb.At(0) != 4 {
		t.Fatal("discard should drop the oldest values", rb.Values())
	}
	vals := rb.Values()
	if len(vals) != 1 || vals[0] != 4 {
		t.Fatal(vals)
	}

	rb.Discard(5)
	if rb.Len() != 0 {
		t.Fatal("discard past the end should empty the ring")
	}
}
