// Package motionview draws the motion axes over a scrolling spectrogram of the
// synth output.
package motionview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"github.com/golang/glog"
	hsluv "github.com/hsluv/hsluv-go"
	"github.com/phrozen/blend"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/peragwin/gyrotone/audio/sensors/motion"
	"github.com/peragwin/gyrotone/audio/util"
	"github.com/peragwin/gyrotone/gfx/skgrid"
)

// axis hues in degrees, assigned in the order axes first appear
var hues = []float64{12, 130, 250}

// Config sizes a View.
type Config struct {
	Width, Height int
	// History is the number of axis snapshots kept for SavePlot.
	History int
	// Scale is the axis position that maps to the bottom of the display.
	Scale float64
}

// DefaultConfig fits a 16x60 LED grid.
var DefaultConfig = Config{Width: 60, Height: 16, History: 1024, Scale: 45}

type trace struct {
	name       string
	color      color.RGBA
	latest     *util.Ring[float64]
	cumulative *util.Ring[float64]
}

// View collects axis snapshots and spectrum columns and renders them. It
// implements motion.AxisSink and is safe for concurrent use.
type View struct {
	sync.Mutex

	cfg      Config
	colors   util.ColorMap
	spectrum *util.Ring[[]float64]
	traces   []*trace
}

// New creates a View.
func New(cfg Config) (*View, error) {
	if cfg.Width < 1 || cfg.Height < 1 {
		return nil, fmt.Errorf("motionview: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.History < cfg.Width {
		cfg.History = cfg.Width
	}
	if !(cfg.Scale > 0) || math.IsInf(cfg.Scale, 0) {
		return nil, fmt.Errorf("motionview: invalid scale %v", cfg.Scale)
	}
	return &View{
		cfg:      cfg,
		colors:   util.NewSpectrumColorMap(),
		spectrum: util.NewRing[[]float64](cfg.Width),
	}, nil
}

func hueColor(h float64) color.RGBA {
	r, g, b := hsluv.HsluvToRGB(h, 100, 60)
	return color.RGBA{
		R: uint8(math.Round(255 * clamp01(r))),
		G: uint8(math.Round(255 * clamp01(g))),
		B: uint8(math.Round(255 * clamp01(b))),
		A: 255,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Axis records an axis snapshot.
func (v *View) Axis(s motion.AxisSnapshot) {
	v.Lock()
	defer v.Unlock()

	var tr *trace
	for _, t := range v.traces {
		if t.name == s.Name {
			tr = t
			break
		}
	}
	if tr == nil {
		tr = &trace{
			name:       s.Name,
			color:      hueColor(hues[len(v.traces)%len(hues)]),
			latest:     util.NewRing[float64](v.cfg.History),
			cumulative: util.NewRing[float64](v.cfg.History),
		}
		v.traces = append(v.traces, tr)
	}
	tr.latest.Push(s.Latest)
	tr.cumulative.Push(s.Cumulative)
}

// Spectrum appends one spectrum column, lowest band first.
func (v *View) Spectrum(bands []float64) {
	col := make([]float64, len(bands))
	copy(col, bands)
	v.spectrum.Push(col)
}

// Run feeds spectrum columns from in until it closes or done fires.
func (v *View) Run(done <-chan struct{}, in <-chan []float64) {
	for {
		select {
		case <-done:
			return
		case col, ok := <-in:
			if !ok {
				return
			}
			v.Spectrum(col)
		}
	}
}

// Render draws the current state, newest column on the right. The axis layer
// is screened over the spectrogram.
func (v *View) Render() *image.RGBA {
	v.Lock()
	defer v.Unlock()

	w, h := v.cfg.Width, v.cfg.Height
	display := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(display, display.Bounds(), image.Black, image.Point{}, draw.Src)
	for k := 0; k < v.spectrum.Len() && k < w; k++ {
		col := v.spectrum.At(k)
		if len(col) == 0 {
			continue
		}
		x := w - 1 - k
		for y := 0; y < h; y++ {
			band := (h - 1 - y) * len(col) / h
			val := math.Max(0, col[band])
			c := v.colors.At(val / (1 + val))
			r, g, b := c.RGB255()
			display.SetRGBA(x, y, color.RGBA{r, g, b, 255})
		}
	}

	axes := image.NewRGBA(display.Bounds())
	draw.Draw(axes, axes.Bounds(), image.Black, image.Point{}, draw.Src)
	yr := util.Range{Min: 0, Max: float64(h - 1)}
	for _, tr := range v.traces {
		for k := 0; k < tr.cumulative.Len() && k < w; k++ {
			y := int(math.Round(util.PeriodicClamp(tr.cumulative.At(k), v.cfg.Scale, yr)))
			axes.SetRGBA(w-1-k, y, tr.color)
		}
	}
	blend.BlendImage(display, axes, blend.Screen)
	return display
}

// Show renders onto a grid, stretching the image to the grid size.
func (v *View) Show(g skgrid.Grid) error {
	img := v.Render()
	src := img.Bounds()
	dst := g.Rect()
	for y := dst.Min.Y; y < dst.Max.Y; y++ {
		sy := src.Min.Y + (y-dst.Min.Y)*src.Dy()/dst.Dy()
		for x := dst.Min.X; x < dst.Max.X; x++ {
			sx := src.Min.X + (x-dst.Min.X)*src.Dx()/dst.Dx()
			g.Pixel(x, y, img.RGBAAt(sx, sy))
		}
	}
	return g.Show()
}

// SavePlot writes the recorded axis history to an image file. The format
// follows the file extension.
func (v *View) SavePlot(path string) error {
	v.Lock()
	defer v.Unlock()

	p := plot.New()
	p.Title.Text = "motion axes"
	p.X.Label.Text = "sample"
	p.Y.Label.Text = "position"

	var lines []interface{}
	for _, tr := range v.traces {
		lines = append(lines, tr.name+" latest", points(tr.latest.Values()))
		lines = append(lines, tr.name+" cumulative", points(tr.cumulative.Values()))
	}
	if len(lines) > 0 {
		if err := plotutil.AddLines(p, lines...); err != nil {
			return err
		}
	}
	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	glog.Infof("wrote motion plot to %s", path)
	return nil
}

func points(data []float64) plotter.XYs {
	pts := make(plotter.XYs, len(data))
	for i := range pts {
		pts[i].X = float64(i)
		pts[i].Y = data[i]
	}
	return pts
}
