package motion

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLineSource(t *testing.T) {
	input := strings.Join([]string{
		"1.5 -2 3",
		"garbage",
		"4, 5, 6",
		"7 8",
		"NaN 1 1",
		"10 11 12 extra",
	}, "\n")
	src := NewLineSource(strings.NewReader(input))
	now := at(0)
	src.now = func() time.Time {
		now = now.Add(10 * time.Millisecond)
		return now
	}
	if err := src.Start(); err != nil {
		t.Fatal(err)
	}
	defer src.Stop()

	var got []Sample
	for s := range src.Samples() {
		got = append(got, s)
	}
	want := []Sample{
		{at(10), 1.5, -2, 3},
		{at(20), 4, 5, 6},
		{at(30), 10, 11, 12},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Time.Equal(want[i].Time) || got[i].X != want[i].X || got[i].Y != want[i].Y || got[i].Z != want[i].Z {
			t.Errorf("sample %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestLineSourceUnavailable(t *testing.T) {
	if err := NewLineSource(nil).Start(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestSimSource(t *testing.T) {
	src := NewSimSource(200)
	if err := src.Start(); err != nil {
		t.Fatal(err)
	}

	var last time.Time
	for i := 0; i < 5; i++ {
		select {
		case s := <-src.Samples():
			if s.Time.Before(last) {
				t.Fatal("samples should arrive in time order")
			}
			if !s.finite() {
				t.Fatalf("non-finite sample %+v", s)
			}
			last = s.Time
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for a sample")
		}
	}
	if err := src.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := src.Stop(); err != nil {
		t.Fatal("second stop should be harmless:", err)
	}
}

func TestSimSourceInvalidFrequency(t *testing.T) {
	if err := NewSimSource(0).Start(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
