package motion

import (
	"math"
	"time"

	"github.com/golang/glog"
	"gonum.org/v1/gonum/stat"
)

// Reading is one sampled value of one axis.
type Reading struct {
	Time  time.Time
	Value float64
}

// AxisSnapshot is what a display needs to know about an axis.
type AxisSnapshot struct {
	Name       string  `json:"name"`
	Latest     float64 `json:"latest"`
	Cumulative float64 `json:"cumulative"`
}

// AxisState tracks one rotation axis: the latest reading, a decaying running
// sum of every reading, and a time ordered history for windowed averages.
type AxisState struct {
	name       string
	latest     float64
	hasData    bool
	cumulative float64
	history    *history
	maxAge     time.Duration

	window []float64
}

// NewAxisState creates an axis tracker. A positive historySize bounds the
// history to that many readings; zero keeps every reading.
func NewAxisState(name string, historySize int) *AxisState {
	return &AxisState{
		name:    name,
		history: newHistory(historySize),
	}
}

// SetMaxAge makes Add evict readings older than maxAge relative to the newest
// reading. Zero disables age based eviction.
func (a *AxisState) SetMaxAge(maxAge time.Duration) {
	a.maxAge = maxAge
}

// Name of the axis.
func (a *AxisState) Name() string { return a.name }

// Latest is the value of the most recent Add. It is only meaningful once
// HasData reports true.
func (a *AxisState) Latest() float64 { return a.latest }

// HasData reports whether Add was ever called.
func (a *AxisState) HasData() bool { return a.hasData }

// Cumulative is the decayed running sum of all added values, saturating at
// ±math.MaxFloat64.
func (a *AxisState) Cumulative() float64 { return a.cumulative }

// Len is the number of readings in the history.
func (a *AxisState) Len() int { return a.history.len() }

// Add records a reading. Readings are expected in time order; a reading older
// than the previous one is still recorded, but AverageChange may then miss
// samples around it.
func (a *AxisState) Add(t time.Time, value float64) {
	if n := a.history.len(); n > 0 && glog.V(2) {
		if prev := a.history.at(0).Time; t.Before(prev) {
			glog.Infof("axis %s: reading at %v arrived after %v", a.name, t, prev)
		}
	}

	a.history.push(Reading{Time: t, Value: value})
	a.latest = value
	a.hasData = true
	// saturate instead of overflowing so the sum stays usable
	a.cumulative = math.Max(-math.MaxFloat64, math.Min(math.MaxFloat64, a.cumulative+value))

	if a.maxAge > 0 {
		a.history.evictBefore(t.Add(-a.maxAge))
	}
}

// Decay scales the running sum by factor so that old motion fades out.
func (a *AxisState) Decay(factor float64) {
	a.cumulative *= factor
}

// AverageChange returns the mean of the readings with now-window < t <= now.
// Readings after now are skipped and the scan stops at the first reading at or
// before now-window, so the cost is proportional to the window rather than the
// history. With no readings in the window the result is NaN.
func (a *AxisState) AverageChange(now time.Time, window time.Duration) float64 {
	start := now.Add(-window)
	n := a.history.len()

	i := 0
	for i < n && a.history.at(i).Time.After(now) {
		i++
	}

	a.window = a.window[:0]
	for ; i < n; i++ {
		r := a.history.at(i)
		if !r.Time.After(start) {
			break
		}
		a.window = append(a.window, r.Value)
	}
	if len(a.window) == 0 {
		return math.NaN()
	}
	return stat.Mean(a.window, nil)
}

// Snapshot returns the display values of the axis.
func (a *AxisState) Snapshot() AxisSnapshot {
	return AxisSnapshot{
		Name:       a.name,
		Latest:     a.latest,
		Cumulative: a.cumulative,
	}
}
