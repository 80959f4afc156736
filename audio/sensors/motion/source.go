package motion

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Sample is one reading of all three axes.
type Sample struct {
	Time    time.Time
	X, Y, Z float64
}

func (s Sample) finite() bool {
	return isFinite(s.X) && isFinite(s.Y) && isFinite(s.Z)
}

// Source delivers sensor samples in time order between Start and Stop.
type Source interface {
	// Start begins delivery. It returns ErrUnavailable if the sensor cannot
	// be used on this host.
	Start() error
	Stop() error
	Samples() <-chan Sample
}

// ErrUnavailable means the sensor is not supported or not present.
var ErrUnavailable = errors.New("sensor unavailable")

// SimSource produces a synthetic gyroscope signal: slow rotation rates on each
// axis with a little wobble, sampled at Frequency Hz.
type SimSource struct {
	Frequency float64
	// Amplitude is the peak rotation rate.
	Amplitude float64

	now  func() time.Time
	out  chan Sample
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSimSource creates a SimSource sampling at frequency Hz.
func NewSimSource(frequency float64) *SimSource {
	return &SimSource{
		Frequency: frequency,
		Amplitude: 4,
		now:       time.Now,
		out:       make(chan Sample, 16),
	}
}

// Samples implements Source.
func (s *SimSource) Samples() <-chan Sample { return s.out }

// Start implements Source.
func (s *SimSource) Start() error {
	if !(s.Frequency > 0) {
		return fmt.Errorf("%w: invalid frequency %v", ErrUnavailable, s.Frequency)
	}
	if s.done != nil {
		return errors.New("sim source already started")
	}
	s.done = make(chan struct{})

	period := time.Duration(float64(time.Second) / s.Frequency)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		start := s.now()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
			now := s.now()
			sample := s.at(now, now.Sub(start).Seconds())
			select {
			case s.out <- sample:
			default:
				glog.Warningln("sim source overrun! Sample was dropped.")
			}
		}
	}()
	return nil
}

func (s *SimSource) at(now time.Time, t float64) Sample {
	a := s.Amplitude
	return Sample{
		Time: now,
		X:    a * math.Sin(2*math.Pi*t/7),
		Y:    a * (math.Sin(2*math.Pi*t/3) + 0.5*math.Sin(2*math.Pi*t*1.3)),
		Z:    a * 0.5 * math.Cos(2*math.Pi*t/11),
	}
}

// Stop implements Source.
func (s *SimSource) Stop() error {
	if s.done == nil {
		return nil
	}
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.wg.Wait()
	return nil
}

// LineSource parses whitespace separated "x y z" lines, such as roll, pitch
// and yaw printed by a microcontroller on a serial port. Samples are stamped
// on arrival. Malformed lines are skipped. The samples channel closes at the
// end of the input.
type LineSource struct {
	r   io.Reader
	now func() time.Time

	out     chan Sample
	done    chan struct{}
	started bool
	once    sync.Once
}

// NewLineSource creates a LineSource reading from r.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{
		r:    r,
		now:  time.Now,
		out:  make(chan Sample, 16),
		done: make(chan struct{}),
	}
}

// Samples implements Source.
func (l *LineSource) Samples() <-chan Sample { return l.out }

// Start implements Source.
func (l *LineSource) Start() error {
	if l.r == nil {
		return fmt.Errorf("%w: no input", ErrUnavailable)
	}
	if l.started {
		return errors.New("line source already started")
	}
	l.started = true

	go func() {
		defer close(l.out)
		scanner := bufio.NewScanner(l.r)
		for scanner.Scan() {
			s, err := parseSample(scanner.Text())
			if err != nil {
				glog.Warningf("skipping line %q: %v", scanner.Text(), err)
				continue
			}
			s.Time = l.now()
			select {
			case <-l.done:
				return
			case l.out <- s:
			}
		}
		if err := scanner.Err(); err != nil {
			glog.Errorf("reading sensor input: %v", err)
		}
	}()
	return nil
}

// Stop implements Source. A reader that is also an io.Closer is closed to
// unblock a pending read.
func (l *LineSource) Stop() error {
	var err error
	l.once.Do(func() {
		close(l.done)
		if c, ok := l.r.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

func parseSample(line string) (Sample, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return Sample{}, fmt.Errorf("expected 3 values, got %d", len(fields))
	}
	var v [3]float64
	for i := range v {
		f, err := strconv.ParseFloat(strings.TrimSuffix(fields[i], ","), 64)
		if err != nil {
			return Sample{}, err
		}
		v[i] = f
	}
	s := Sample{X: v[0], Y: v[1], Z: v[2]}
	if !s.finite() {
		return Sample{}, errors.New("non-finite value")
	}
	return s, nil
}
