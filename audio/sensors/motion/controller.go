// Package motion maps orientation sensor motion onto musical parameters and
// drives a note gate from them.
package motion

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/golang/glog"
	"github.com/graphql-go/graphql"

	"github.com/peragwin/gyrotone/audio/sequencer"
	"github.com/peragwin/gyrotone/audio/util"
)

// AudioSink receives note events and the latest voice frequencies.
type AudioSink interface {
	Attack(freqs []float64)
	Release(freqs []float64)
	SetFrequencies(primary, harmony float64)
}

// AxisSink receives a snapshot of every axis after each reading.
type AxisSink interface {
	Axis(s AxisSnapshot)
}

// MusicalParameters are derived from the axis state on every tick.
type MusicalParameters struct {
	RestRatio        float64
	BPM              float64
	PrimaryFrequency float64
	HarmonyFrequency float64
}

// TickResult is the outcome of one tick.
type TickResult struct {
	MusicalParameters
	Event sequencer.Event
}

// TickState is a debug view of the last tick.
type TickState struct {
	Ticks     int     `json:"ticks"`
	Count     int     `json:"count"`
	Phase     string  `json:"phase"`
	OnLength  float64 `json:"onLength"`
	OffLength float64 `json:"offLength"`
	Freq      float64 `json:"freq"`
	Harmony   float64 `json:"harmonyFreq"`
	BPM       float64 `json:"bpm"`
	Rest      float64 `json:"restPercentage"`
}

// ErrSourceClosed is returned by Run when the sensor stops delivering samples.
var ErrSourceClosed = errors.New("sensor source closed")

// Controller owns the x, y and z axis state, the note gate and the mapping
// between them.
type Controller struct {
	mu sync.RWMutex

	params     Parameters
	tickPeriod time.Duration
	quantizer  *util.Quantizer

	x, y, z   *AxisState
	scheduler *sequencer.Scheduler

	audio AudioSink
	view  AxisSink

	stepNow      time.Time
	harmonyRatio float64
	last         MusicalParameters
	state        TickState
	stopped      bool

	schema graphql.Schema
}

// NewController creates a Controller. Either sink may be nil. It panics if the
// config is invalid.
func NewController(cfg *Config, audio AudioSink, view AxisSink) *Controller {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	params := DefaultParameters
	if cfg.Parameters != nil {
		params = *cfg.Parameters
	}
	tick := cfg.TickPeriod
	if tick == 0 {
		tick = DefaultTickPeriod
	}
	quantizer := util.DefaultQuantizer
	if len(cfg.Steps) > 0 {
		quantizer = &util.Quantizer{Steps: append([]float64(nil), cfg.Steps...)}
	}

	axes := make([]*AxisState, 3)
	for i, name := range []string{"x", "y", "z"} {
		axes[i] = NewAxisState(name, cfg.HistorySize)
		axes[i].SetMaxAge(cfg.HistoryMaxAge)
	}

	c := &Controller{
		params:       params,
		tickPeriod:   tick,
		quantizer:    quantizer,
		x:            axes[0],
		y:            axes[1],
		z:            axes[2],
		scheduler:    sequencer.NewScheduler(tick),
		audio:        audio,
		view:         view,
		harmonyRatio: 1,
		last: MusicalParameters{
			RestRatio:        (params.RestLow + params.RestHigh) / 2,
			BPM:              params.BPM,
			PrimaryFrequency: params.BaseFrequency,
			HarmonyFrequency: params.BaseFrequency * params.HarmonyOffset,
		},
	}
	if err := c.initGraphql(); err != nil {
		panic(err)
	}
	return c
}

// TickPeriod is the nominal tick period the gate lengths are computed with.
func (c *Controller) TickPeriod() time.Duration { return c.tickPeriod }

// Parameters returns a copy of the current parameters.
func (c *Controller) Parameters() Parameters {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.params
}

// SetParameters replaces the parameters if they are valid.
func (c *Controller) SetParameters(p Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.params = p
	c.mu.Unlock()
	return nil
}

// Axes returns snapshots of the x, y and z axes.
func (c *Controller) Axes() []AxisSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return []AxisSnapshot{c.x.Snapshot(), c.y.Snapshot(), c.z.Snapshot()}
}

// State returns the debug view of the last tick.
func (c *Controller) State() TickState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Add records one sensor sample on every axis. Samples with non-finite values
// are dropped.
func (c *Controller) Add(s Sample) {
	if !s.finite() {
		glog.Warningf("dropping non-finite sample %+v", s)
		return
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.x.Add(s.Time, s.X)
	c.y.Add(s.Time, s.Y)
	c.z.Add(s.Time, s.Z)
	// harmony looks at the last whole window before the reading
	c.stepNow = s.Time.Truncate(c.harmonyWindow())
	snaps := [3]AxisSnapshot{c.x.Snapshot(), c.y.Snapshot(), c.z.Snapshot()}
	c.mu.Unlock()

	if c.view != nil {
		for _, snap := range snaps {
			c.view.Axis(snap)
		}
	}
}

func (c *Controller) harmonyWindow() time.Duration {
	return time.Duration(c.params.HarmonyWindow) * time.Millisecond
}

// position is what drives pitch, tempo and rest for an axis.
func (c *Controller) position(a *AxisState) float64 {
	if c.params.UseLatest {
		return a.Latest()
	}
	return a.Cumulative()
}

// compute derives the musical parameters from the current axis state. An
// input that has overflowed holds the values it drove on the previous tick.
func (c *Controller) compute() MusicalParameters {
	p := &c.params
	mp := c.last

	if z := c.position(c.z); isFinite(z) {
		mp.RestRatio = util.PeriodicClamp(z, p.RestMax, util.Range{Min: p.RestLow, Max: p.RestHigh})
	} else {
		glog.Warningf("axis z position %v overflowed, holding rest ratio %v", z, mp.RestRatio)
	}

	if x := c.position(c.x); isFinite(x) {
		mp.BPM = p.BPM + util.PeriodicClamp(x, p.TempoMax, util.Range{Min: -1, Max: 1})*p.BPMSwing
		step := util.PeriodicClamp(x, p.PitchMax, util.Range{Min: -p.PitchSpan, Max: p.PitchSpan})
		mp.PrimaryFrequency = c.quantizer.Ratio(step) * p.BaseFrequency
	} else {
		glog.Warningf("axis x position %v overflowed, holding tempo and pitch", x)
	}

	// an empty window keeps the previous harmony
	avg := c.y.AverageChange(c.stepNow, c.harmonyWindow())
	switch scaled := avg * p.HarmonyScale; {
	case math.IsNaN(avg):
	case !isFinite(scaled):
		glog.Warningf("axis y average %v overflowed, holding harmony ratio %v", avg, c.harmonyRatio)
	default:
		c.harmonyRatio = c.quantizer.Ratio(scaled)
	}
	mp.HarmonyFrequency = c.harmonyRatio * mp.PrimaryFrequency * p.HarmonyOffset

	c.last = mp
	return mp
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Tick recomputes the musical parameters, advances the note gate and forwards
// the result to the audio sink. It returns nil once the controller is stopped.
func (c *Controller) Tick() *TickResult {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}

	if d := c.params.Decay; d < 1 {
		c.x.Decay(d)
		c.y.Decay(d)
		c.z.Decay(d)
	}

	mp := c.compute()
	ev := c.scheduler.Advance(mp.BPM, mp.RestRatio, func() []float64 {
		return []float64{mp.PrimaryFrequency, mp.HarmonyFrequency}
	})

	on, off := c.scheduler.LastLengths()
	c.state = TickState{
		Ticks:     c.state.Ticks + 1,
		Count:     c.scheduler.Elapsed(),
		Phase:     c.scheduler.Phase().String(),
		OnLength:  on,
		OffLength: off,
		Freq:      mp.PrimaryFrequency,
		Harmony:   mp.HarmonyFrequency,
		BPM:       mp.BPM,
		Rest:      mp.RestRatio,
	}
	debug := c.params.Debug
	state := c.state
	c.mu.Unlock()

	if debug || bool(glog.V(3)) {
		glog.Infof("tick %+v", state)
	}

	if c.audio != nil {
		c.audio.SetFrequencies(mp.PrimaryFrequency, mp.HarmonyFrequency)
		switch ev.Kind {
		case sequencer.Attack:
			c.audio.Attack(ev.Frequencies)
		case sequencer.Release:
			if len(ev.Frequencies) > 0 {
				c.audio.Release(ev.Frequencies)
			}
		}
	}

	return &TickResult{MusicalParameters: mp, Event: ev}
}

// Stop makes the controller inert and releases any sounding notes. Further
// calls to Add and Tick do nothing.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	c.stopped = true
	ev := c.scheduler.Reset()
	c.mu.Unlock()

	if c.audio != nil && ev.Kind == sequencer.Release {
		c.audio.Release(ev.Frequencies)
	}
}

// Run starts the source and serializes its samples with a tick every
// TickPeriod until ctx is done or the source closes. On return the source and
// ticker are stopped and the controller is inert.
func (c *Controller) Run(ctx context.Context, src Source) error {
	if err := src.Start(); err != nil {
		return fmt.Errorf("starting sensor: %w", err)
	}
	glog.Infof("running with a %v tick", c.tickPeriod)

	ticker := time.NewTicker(c.tickPeriod)
	defer c.Stop()
	defer ticker.Stop()
	defer func() {
		if err := src.Stop(); err != nil {
			glog.Warningf("stopping sensor: %v", err)
		}
	}()

	samples := src.Samples()
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-samples:
			if !ok {
				return ErrSourceClosed
			}
			c.Add(s)
		case <-ticker.C:
			c.Tick()
		}
	}
}
