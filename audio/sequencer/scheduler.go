// Package sequencer turns continuous tempo and rest controls into discrete
// note on/off events.
package sequencer

import (
	"fmt"
	"math"
	"time"
)

// Phase of the note gate.
type Phase int

// Gate phases
const (
	On Phase = iota
	Off
)

func (p Phase) String() string {
	switch p {
	case On:
		return "on"
	case Off:
		return "off"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// EventKind says what a tick did to the gate.
type EventKind int

// Event kinds
const (
	None EventKind = iota
	Attack
	Release
)

func (k EventKind) String() string {
	switch k {
	case None:
		return "none"
	case Attack:
		return "attack"
	case Release:
		return "release"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is the outcome of one tick. Frequencies holds the notes that start
// sounding for an Attack and the notes that stop for a Release.
type Event struct {
	Kind        EventKind
	Frequencies []float64
}

// Scheduler is a two phase gate advanced by a fixed period tick. The on and off
// lengths are recomputed on every tick from the current tempo and rest ratio,
// so a tempo change moves the next boundary right away.
type Scheduler struct {
	tickMs float64

	phase   Phase
	elapsed int
	active  []float64

	onLength  float64
	offLength float64
}

// NewScheduler creates a scheduler for a driver that ticks every tickPeriod.
// It starts in the On phase with nothing sounding.
func NewScheduler(tickPeriod time.Duration) *Scheduler {
	if tickPeriod <= 0 {
		panic(fmt.Sprintf("scheduler: tick period must be positive, got %v", tickPeriod))
	}
	return &Scheduler{
		tickMs: float64(tickPeriod) / float64(time.Millisecond),
		phase:  On,
	}
}

// Phase is the current gate phase.
func (s *Scheduler) Phase() Phase { return s.phase }

// Elapsed is the number of ticks spent in the current phase.
func (s *Scheduler) Elapsed() int { return s.elapsed }

// Active returns a copy of the frequencies currently sounding.
func (s *Scheduler) Active() []float64 {
	return append([]float64(nil), s.active...)
}

// LastLengths are the on and off lengths in ticks used by the last Advance.
func (s *Scheduler) LastLengths() (on, off float64) {
	return s.onLength, s.offLength
}

// Lengths returns the on and off lengths of one beat in ticks.
func (s *Scheduler) Lengths(bpm, restRatio float64) (on, off float64) {
	if !(bpm > 0) || math.IsInf(bpm, 0) {
		panic(fmt.Sprintf("scheduler: bpm must be positive and finite, got %v", bpm))
	}
	if math.IsNaN(restRatio) {
		panic("scheduler: rest ratio is NaN")
	}
	restRatio = math.Max(0, math.Min(1, restRatio))

	beatMs := 60 / bpm * 1000
	return beatMs * (1 - restRatio) / s.tickMs, beatMs * restRatio / s.tickMs
}

// Advance runs one tick. voicing is called only on an Attack to produce the
// frequencies that start sounding.
func (s *Scheduler) Advance(bpm, restRatio float64, voicing func() []float64) Event {
	s.onLength, s.offLength = s.Lengths(bpm, restRatio)
	s.elapsed++

	switch s.phase {
	case On:
		if float64(s.elapsed) >= s.onLength {
			s.phase = Off
			s.elapsed = 0
			released := s.active
			s.active = nil
			return Event{Kind: Release, Frequencies: released}
		}
	case Off:
		if float64(s.elapsed) >= s.offLength {
			s.phase = On
			s.elapsed = 0
			var freqs []float64
			if voicing != nil {
				freqs = voicing()
			}
			s.active = append([]float64(nil), freqs...)
			return Event{Kind: Attack, Frequencies: freqs}
		}
	}
	return Event{Kind: None}
}

// Reset returns the gate to its initial state. If notes were sounding the
// returned event releases them.
func (s *Scheduler) Reset() Event {
	ev := Event{Kind: None}
	if len(s.active) > 0 {
		ev = Event{Kind: Release, Frequencies: s.active}
	}
	s.phase = On
	s.elapsed = 0
	s.active = nil
	return ev
}
