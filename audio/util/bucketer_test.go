package util

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestBucketer(t *testing.T) {
	size := 2048
	frame := make([]float64, size)
	for i := range frame {
		frame[i] = float64(i) * 22000 / float64(size)
	}

	for _, scale := range []Scale{MelScale, LogScale2} {
		b := NewBucketer(scale, 32, size, 32, 16000)
		for i := 1; i < len(b.indices); i++ {
			if b.indices[i] < b.indices[i-1] {
				t.Fatal("bucket edges are not ascending", b.indices)
			}
		}
		buckets := b.Bucket(frame)
		if len(buckets) != 32 {
			t.Fatal("wrong number of buckets", len(buckets))
		}
		if got, want := floats.Sum(buckets), floats.Sum(frame); math.Abs(got-want) > 1e-6*want {
			t.Errorf("bucketing lost energy: %v != %v", got, want)
		}
	}
}

func TestScales(t *testing.T) {
	for _, f := range []float64{32, 440, 16000} {
		if got := MelScale.From(MelScale.To(f)); math.Abs(got-f) > 1e-9*f {
			t.Errorf("mel round trip of %v gave %v", f, got)
		}
		if got := LogScale2.From(LogScale2.To(f)); math.Abs(got-f) > 1e-9*f {
			t.Errorf("log2 round trip of %v gave %v", f, got)
		}
	}
}

func TestBucketerBand(t *testing.T) {
	b := NewBucketer(LogScale2, 8, 512, 32, 16000)
	if got := b.Band(0); got != 0 {
		t.Errorf("Band(0) = %d, want 0", got)
	}
	if got := b.Band(511); got != 7 {
		t.Errorf("Band(511) = %d, want 7", got)
	}
	for i := 1; i < 512; i++ {
		if b.Band(i) < b.Band(i-1) {
			t.Fatalf("bands are not ascending at bin %d", i)
		}
	}
	for j, idx := range b.indices {
		if idx < 512 && b.Band(idx) <= j {
			t.Errorf("edge bin %d belongs to band %d, want > %d", idx, b.Band(idx), j)
		}
	}
}
