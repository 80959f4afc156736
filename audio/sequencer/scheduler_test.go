package sequencer

import (
	"flag"
	"testing"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

var plotFile = flag.String("plot", "", "write a plot of the gate to this png file")

func chord() []float64 { return []float64{440, 220} }

func TestDutyCycle(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)

	var attacks, releases []int
	for tick := 1; tick <= 100; tick++ {
		ev := s.Advance(120, 0.5, chord)
		switch ev.Kind {
		case Attack:
			attacks = append(attacks, tick)
			if len(ev.Frequencies) != 2 {
				t.Fatalf("attack should carry the voicing, got %v", ev.Frequencies)
			}
		case Release:
			releases = append(releases, tick)
		}
	}

	wantReleases := []int{25, 75}
	wantAttacks := []int{50, 100}
	if !equalInts(releases, wantReleases) {
		t.Errorf("releases at %v, want %v", releases, wantReleases)
	}
	if !equalInts(attacks, wantAttacks) {
		t.Errorf("attacks at %v, want %v", attacks, wantAttacks)
	}
	if on, off := s.LastLengths(); on != 25 || off != 25 {
		t.Errorf("lengths = %v, %v, want 25, 25", on, off)
	}
}

func TestReleaseCarriesActive(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)

	var last Event
	for i := 0; i < 50; i++ {
		last = s.Advance(120, 0.5, chord)
	}
	if last.Kind != Attack || s.Phase() != On {
		t.Fatalf("expected attack at tick 50, got %v in phase %v", last.Kind, s.Phase())
	}
	active := s.Active()
	if len(active) != 2 || active[0] != 440 {
		t.Fatalf("active = %v", active)
	}

	for i := 0; i < 25; i++ {
		last = s.Advance(120, 0.5, chord)
	}
	if last.Kind != Release {
		t.Fatalf("expected release at tick 75, got %v", last.Kind)
	}
	if len(last.Frequencies) != 2 || last.Frequencies[1] != 220 {
		t.Errorf("release should carry the sounding notes, got %v", last.Frequencies)
	}
	if len(s.Active()) != 0 || s.Phase() != Off {
		t.Errorf("nothing should sound while off")
	}
}

func TestTempoChangeTakesEffectImmediately(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	for i := 0; i < 20; i++ {
		if ev := s.Advance(60, 0.5, chord); ev.Kind != None {
			t.Fatalf("unexpected %v at tick %d", ev.Kind, i+1)
		}
	}
	// at 120 bpm the on length drops to 25 ticks, at 240 to 12.5 which
	// has already passed
	if ev := s.Advance(240, 0.5, chord); ev.Kind != Release {
		t.Fatalf("expected release right after the tempo change, got %v", ev.Kind)
	}
}

func TestRestExtremes(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	// a zero length phase ends on the first tick spent in it
	if ev := s.Advance(120, 1, chord); ev.Kind != Release {
		t.Fatalf("rest 1 should release at once, got %v", ev.Kind)
	}
	if ev := s.Advance(120, 0, chord); ev.Kind != Attack {
		t.Fatalf("rest 0 should attack at once, got %v", ev.Kind)
	}
	if on, off := s.Lengths(120, 2); on != 0 || off != 50 {
		t.Errorf("rest ratio should be clamped to 1: %v, %v", on, off)
	}
}

func TestReset(t *testing.T) {
	s := NewScheduler(10 * time.Millisecond)
	if ev := s.Reset(); ev.Kind != None {
		t.Fatalf("reset with nothing sounding should be a no-op, got %v", ev.Kind)
	}
	for i := 0; i < 50; i++ {
		s.Advance(120, 0.5, chord)
	}
	ev := s.Reset()
	if ev.Kind != Release || len(ev.Frequencies) != 2 {
		t.Fatalf("reset should release the sounding notes, got %+v", ev)
	}
	if s.Phase() != On || s.Elapsed() != 0 || len(s.Active()) != 0 {
		t.Fatalf("reset should restore the initial state")
	}
}

func TestInvalidTempo(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero bpm")
		}
	}()
	NewScheduler(10*time.Millisecond).Advance(0, 0.5, chord)
}

// TestPlotGate writes the gate over a tempo sweep when -plot is given.
func TestPlotGate(t *testing.T) {
	if *plotFile == "" {
		t.Skip("no -plot file given")
	}
	s := NewScheduler(10 * time.Millisecond)
	size := 1000
	gate := make(plotter.XYs, size)
	tempo := make(plotter.XYs, size)
	for i := 0; i < size; i++ {
		bpm := 60 + 120*float64(i)/float64(size)
		s.Advance(bpm, 0.3, chord)
		gate[i].X, tempo[i].X = float64(i), float64(i)
		if s.Phase() == On {
			gate[i].Y = 1
		}
		tempo[i].Y = bpm / 180
	}

	p := plot.New()
	if err := plotutil.AddLines(p, "Gate", gate, "Tempo", tempo); err != nil {
		t.Fatal(err)
	}
	if err := p.Save(16*vg.Inch, 4*vg.Inch, *plotFile); err != nil {
		t.Fatal(err)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
