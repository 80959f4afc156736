package audio

import (
	"context"
	"fmt"

	"github.com/golang/glog"
	"github.com/gordonklaus/portaudio"
)

// Config represents a config that is used to open a new output Stream.
type Config struct {
	// BlockSize refers to the number of frames in each block
	BlockSize int
	// Channels is the number of output channels
	Channels int
	// SampleRate is the sample rate (Fs).
	SampleRate float64
}

// NewSink opens the default output device and calls render from the portaudio
// callback for every block until ctx is done. render receives interleaved
// samples and must fill all of them. The returned channel yields at most one
// error and is closed when the stream has shut down.
func NewSink(ctx context.Context, cfg *Config, render func(out []float32)) <-chan error {
	errc := make(chan error, 1)

	go func() {
		defer close(errc)

		if err := portaudio.Initialize(); err != nil {
			errc <- fmt.Errorf("initializing portaudio: %w", err)
			return
		}
		defer portaudio.Terminate()

		stream, err := portaudio.OpenDefaultStream(
			0, cfg.Channels, cfg.SampleRate, cfg.BlockSize, render)
		if err != nil {
			errc <- fmt.Errorf("opening output stream: %w", err)
			return
		}
		defer stream.Close()
		if err := stream.Start(); err != nil {
			errc <- fmt.Errorf("starting output stream: %w", err)
			return
		}
		glog.Infof("audio output started: %d ch @ %v Hz, block %d",
			cfg.Channels, cfg.SampleRate, cfg.BlockSize)

		<-ctx.Done()
		if err := stream.Stop(); err != nil {
			errc <- fmt.Errorf("stopping output stream: %w", err)
		}
	}()

	return errc
}
