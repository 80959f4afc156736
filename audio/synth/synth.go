// Package synth is a small polyphonic wavetable synthesizer that plays the
// attack and release events of the motion controller.
package synth

import (
	"errors"
	"math"
	"sync"
	"time"

	math32 "github.com/chewxy/math32"
	"github.com/golang/glog"
	"github.com/mjibson/go-dsp/window"
)

// DefaultHarmonics are the cosine partials of the voice waveform.
var DefaultHarmonics = []float64{0, 1, 0.25, 0.5, 0.5, 0.75, 0.1, 0.1, 0.5, 0.25, 0}

const tableSize = 2048

// Config configures a PolySynth.
type Config struct {
	SampleRate float64
	// Channels of interleaved output; every channel gets the same signal.
	Channels  int
	Polyphony int
	Harmonics []float64
	Attack    time.Duration
	Release   time.Duration
	Gain      float64
	// Continuous retunes sounding voices on every SetFrequencies instead of
	// holding the pitch they were attacked with.
	Continuous bool
}

// DefaultConfig is a two voice synth at 48kHz.
var DefaultConfig = Config{
	SampleRate: 48000,
	Channels:   1,
	Polyphony:  2,
	Harmonics:  DefaultHarmonics,
	Attack:     5 * time.Millisecond,
	Release:    30 * time.Millisecond,
	Gain:       0.3,
}

type voice struct {
	// role is the index of the voice in the chord it was attacked with
	role   int
	freq   float32
	phase  float32
	active bool
	gated  bool
	age    int

	env   float32
	start float32
	ramp  []float32
	pos   int
}

// PolySynth mixes a fixed number of wavetable voices.
type PolySynth struct {
	sync.Mutex

	sampleRate float32
	channels   int
	gain       float32
	continuous bool

	table   []float32
	attack  []float32
	release []float32
	voices  []voice
	clock   int

	primary, harmony float64

	tap chan []float32
}

// New creates a PolySynth.
func New(cfg Config) (*PolySynth, error) {
	if !(cfg.SampleRate > 0) {
		return nil, errors.New("synth: sample rate must be positive")
	}
	if cfg.Polyphony < 1 {
		return nil, errors.New("synth: polyphony must be at least 1")
	}
	if cfg.Channels < 1 {
		cfg.Channels = 1
	}
	harmonics := cfg.Harmonics
	if len(harmonics) == 0 {
		harmonics = DefaultHarmonics
	}
	table, err := newWaveTable(harmonics)
	if err != nil {
		return nil, err
	}
	return &PolySynth{
		sampleRate: float32(cfg.SampleRate),
		channels:   cfg.Channels,
		gain:       float32(cfg.Gain),
		continuous: cfg.Continuous,
		table:      table,
		attack:     newRamp(cfg.SampleRate, cfg.Attack),
		release:    newRamp(cfg.SampleRate, cfg.Release),
		voices:     make([]voice, cfg.Polyphony),
	}, nil
}

// newWaveTable renders one cycle of the cosine series, normalized to a peak
// of 1.
func newWaveTable(harmonics []float64) ([]float32, error) {
	table := make([]float32, tableSize)
	var peak float32
	for i := range table {
		var v float32
		for k, a := range harmonics {
			v += float32(a) * math32.Cos(2*math32.Pi*float32(k*i)/tableSize)
		}
		table[i] = v
		if a := math32.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return nil, errors.New("synth: harmonics produce a silent waveform")
	}
	for i := range table {
		table[i] /= peak
	}
	return table, nil
}

// newRamp is the rising half of a Hann window lasting d.
func newRamp(sampleRate float64, d time.Duration) []float32 {
	n := int(math.Round(sampleRate * d.Seconds()))
	if n < 1 {
		return []float32{1}
	}
	w := window.Hann(2*n + 1)
	ramp := make([]float32, n+1)
	for i := range ramp {
		ramp[i] = float32(w[i])
	}
	ramp[n] = 1
	return ramp
}

// Attack starts a voice for each frequency, stealing the oldest voices when
// there are not enough free ones.
func (s *PolySynth) Attack(freqs []float64) {
	s.Lock()
	defer s.Unlock()

	for role, f := range freqs {
		if !(f > 0) || math.IsInf(f, 0) {
			glog.Warningf("synth: ignoring attack at %v Hz", f)
			continue
		}
		v := s.freeVoice()
		if !v.active {
			v.phase = 0
		}
		s.clock++
		*v = voice{
			role:   role,
			freq:   float32(f),
			phase:  v.phase,
			active: true,
			gated:  true,
			age:    s.clock,
			env:    v.env,
			start:  v.env,
			ramp:   s.attack,
		}
	}
}

func (s *PolySynth) freeVoice() *voice {
	oldest := 0
	for i := range s.voices {
		if !s.voices[i].active {
			return &s.voices[i]
		}
		if s.voices[i].age < s.voices[oldest].age {
			oldest = i
		}
	}
	return &s.voices[oldest]
}

// Release fades out the gated voices playing any of the frequencies.
func (s *PolySynth) Release(freqs []float64) {
	s.Lock()
	defer s.Unlock()

	for _, f := range freqs {
		for i := range s.voices {
			v := &s.voices[i]
			if v.gated && closeTo(v.freq, float32(f)) {
				v.gated = false
				v.start = v.env
				v.ramp = s.release
				v.pos = 0
				break
			}
		}
	}
}

func closeTo(a, b float32) bool {
	return math32.Abs(a-b) <= 1e-4*math32.Max(1, math32.Abs(b))
}

// SetFrequencies records the current voice frequencies. In continuous mode the
// sounding voices follow them.
func (s *PolySynth) SetFrequencies(primary, harmony float64) {
	s.Lock()
	defer s.Unlock()

	s.primary, s.harmony = primary, harmony
	if !s.continuous {
		return
	}
	for i := range s.voices {
		v := &s.voices[i]
		if !v.gated {
			continue
		}
		switch v.role {
		case 0:
			v.freq = float32(primary)
		case 1:
			v.freq = float32(harmony)
		}
	}
}

// Frequencies returns the last values passed to SetFrequencies.
func (s *PolySynth) Frequencies() (primary, harmony float64) {
	s.Lock()
	defer s.Unlock()
	return s.primary, s.harmony
}

// Active is the number of voices still sounding, including release tails.
func (s *PolySynth) Active() int {
	s.Lock()
	defer s.Unlock()
	n := 0
	for i := range s.voices {
		if s.voices[i].active {
			n++
		}
	}
	return n
}

// Tap returns a channel that receives a copy of every rendered block, one
// value per frame. Blocks are dropped when the receiver falls behind.
func (s *PolySynth) Tap() <-chan []float32 {
	s.Lock()
	defer s.Unlock()
	if s.tap == nil {
		s.tap = make(chan []float32, 8)
	}
	return s.tap
}

// Process renders interleaved output. It is meant to be used as a portaudio
// stream callback.
func (s *PolySynth) Process(out []float32) {
	s.Lock()
	defer s.Unlock()

	frames := len(out) / s.channels
	var mono []float32
	if s.tap != nil {
		mono = make([]float32, frames)
	}

	for n := 0; n < frames; n++ {
		var sum float32
		for i := range s.voices {
			v := &s.voices[i]
			if !v.active {
				continue
			}
			sum += v.env * s.sample(v.phase)
			v.phase += v.freq / s.sampleRate
			v.phase -= math32.Floor(v.phase)
			s.step(v)
		}
		sum *= s.gain
		for c := 0; c < s.channels; c++ {
			out[n*s.channels+c] = sum
		}
		if mono != nil {
			mono[n] = sum
		}
	}

	if mono != nil {
		select {
		case s.tap <- mono:
		default:
			if glog.V(2) {
				glog.Infoln("synth tap overrun! Block was dropped.")
			}
		}
	}
}

// sample reads the wavetable at phase in [0,1) with linear interpolation.
func (s *PolySynth) sample(phase float32) float32 {
	x := phase * tableSize
	i := int(x)
	frac := x - float32(i)
	a := s.table[i%tableSize]
	b := s.table[(i+1)%tableSize]
	return a + frac*(b-a)
}

// step advances the voice envelope by one sample.
func (s *PolySynth) step(v *voice) {
	if v.pos >= len(v.ramp) {
		return
	}
	r := v.ramp[v.pos]
	if v.gated {
		v.env = v.start + (1-v.start)*r
	} else {
		v.env = v.start * (1 - r)
	}
	v.pos++
	if !v.gated && v.pos == len(v.ramp) {
		v.active = false
		v.env = 0
	}
}
