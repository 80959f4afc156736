// Package skgrid drives a grid of APA102 style LEDs wired as a column snake.
package skgrid

import (
	"errors"
	"image"
	"image/color"
)

// Driver transports a complete frame buffer to the LEDs.
type Driver interface {
	Send([]byte) error
	Close() error
}

// Grid is a display that can be drawn to pixel by pixel.
type Grid interface {
	Rect() image.Rectangle
	Pixel(x, y int, col color.RGBA)
	Show() error
	Close() error
}

// Options modify how pixel coordinates map onto the strip.
type Options struct {
	// Transpose swaps the x and y axes, so the grid is Height pixels wide.
	Transpose bool
}

type skGrid struct {
	width     int
	height    int
	buffer    []byte
	driver    Driver
	transpose bool
}

// NewGrid creates a Grid of width by height LEDs that sends frames to driver.
func NewGrid(width, height int, driver Driver, opts Options) (Grid, error) {
	if width < 1 || height < 1 {
		return nil, errors.New("skgrid: grid must be at least 1x1")
	}
	if driver == nil {
		return nil, errors.New("skgrid: missing driver")
	}
	ln := width * height
	// start frame, one word per LED, then enough end frame bits to clock the
	// data through the whole strip
	buffer := make([]byte, 4*(ln+1)+6+ln/16)
	buffer[4*(ln+1)] = 0xff
	return &skGrid{
		width:     width,
		height:    height,
		transpose: opts.Transpose,
		buffer:    buffer,
		driver:    driver,
	}, nil
}

func (s *skGrid) Rect() image.Rectangle {
	if s.transpose {
		return image.Rect(0, 0, s.height, s.width)
	}
	return image.Rect(0, 0, s.width, s.height)
}

func (s *skGrid) setBuffer(idx int, col color.RGBA) {
	n := 4*idx + 4
	s.buffer[n] = 0xe0 | col.A
	s.buffer[n+1] = col.B
	s.buffer[n+2] = col.G
	s.buffer[n+3] = col.R
}

// index of the LED at physical column x and row y
func (s *skGrid) index(x, y int) int {
	// every other column runs upward
	if x%2 == 1 {
		y = s.height - 1 - y
	}
	return s.height*x + y
}

func (s *skGrid) Pixel(x, y int, col color.RGBA) {
	if s.transpose {
		x, y = y, x
	}
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return
	}
	// adjust B/G channels to match R
	col.G /= 2
	col.B /= 2
	// 5 bit global brightness
	col.A = uint8(float64(col.A)/8 + 0.5)
	if col.A > 0x1f {
		col.A = 0x1f
	}
	s.setBuffer(s.index(x, y), col)
}

func (s *skGrid) Show() error {
	return s.driver.Send(s.buffer)
}

func (s *skGrid) Close() error {
	return s.driver.Close()
}
