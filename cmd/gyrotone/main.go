// Command gyrotone plays motion sensor readings as a gated two voice synth.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"

	"github.com/peragwin/gyrotone/audio"
	"github.com/peragwin/gyrotone/audio/fft"
	"github.com/peragwin/gyrotone/audio/sensors/motion"
	"github.com/peragwin/gyrotone/audio/synth"
	"github.com/peragwin/gyrotone/gfx/motionview"
)

const (
	frameSize = 1024
	bands     = 16
	minFreq   = 40
)

var (
	source     = flag.String("source", "sim", "motion source: sim or stdin")
	rate       = flag.Float64("rate", 60, "simulated sensor rate in Hz")
	tick       = flag.Duration("tick", motion.DefaultTickPeriod, "gate tick period")
	history    = flag.Int("history", 0, "readings kept per axis, 0 keeps all")
	maxAge     = flag.Duration("max-age", 0, "drop readings older than this, 0 keeps all")
	configFile = flag.String("config", "gyrotone.json", "parameter file loaded at start and saved on exit")
	continuous = flag.Bool("continuous", false, "retune sounding notes as the device moves")

	sampleRate = flag.Float64("sample-rate", 48000, "audio output sample rate")
	blockSize  = flag.Int("block-size", 256, "audio output block size")
	listDevs   = flag.Bool("list-devices", false, "list audio output devices and exit")

	remote    = flag.String("remote", "", "ip:port of remote led grid")
	frameRate = flag.Int("frame-rate", 30, "frame rate of the led grid")
	plotFile  = flag.String("plot", "", "write a plot of the axis history to this file on exit")
	httpAddr  = flag.String("http", ":8080", "address of the graphql api, empty to disable")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if *listDevs {
		if err := audio.PrintDevices(os.Stdout); err != nil {
			glog.Fatal(err)
		}
		return
	}

	if err := run(); err != nil {
		if errors.Is(err, motion.ErrUnavailable) {
			fmt.Fprintln(os.Stderr, "motion sensor unavailable:", err)
			glog.Flush()
			os.Exit(2)
		}
		glog.Fatal(err)
	}
}

func newSource() (motion.Source, error) {
	switch strings.ToLower(*source) {
	case "sim":
		return motion.NewSimSource(*rate), nil
	case "stdin", "-":
		return motion.NewLineSource(os.Stdin), nil
	}
	return nil, fmt.Errorf("%w: unknown source %q", motion.ErrUnavailable, *source)
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	src, err := newSource()
	if err != nil {
		return err
	}

	cfg := synth.DefaultConfig
	cfg.SampleRate = *sampleRate
	cfg.Continuous = *continuous
	voices, err := synth.New(cfg)
	if err != nil {
		return err
	}

	view, err := motionview.New(motionview.DefaultConfig)
	if err != nil {
		return err
	}

	ctrl := motion.NewController(&motion.Config{
		TickPeriod:    *tick,
		HistorySize:   *history,
		HistoryMaxAge: *maxAge,
	}, voices, view)
	if err := ctrl.LoadConfig(*configFile); err != nil {
		glog.Warningf("could not load %s: %v", *configFile, err)
	}

	// analyser chain: synth tap -> overlapping frames -> spectrum -> view
	analyser, err := fft.NewAnalyser(*sampleRate, frameSize, bands, minFreq)
	if err != nil {
		return err
	}
	done := ctx.Done()
	frames := audio.Buffer(done, voices.Tap(), frameSize)
	go view.Run(done, audio.Node(done, frames, analyser.Spectrum))

	sinkErr := audio.NewSink(ctx, &audio.Config{
		BlockSize:  *blockSize,
		Channels:   cfg.Channels,
		SampleRate: *sampleRate,
	}, voices.Process)
	go func() {
		for err := range sinkErr {
			glog.Errorf("audio output: %v", err)
		}
	}()

	if *remote != "" {
		go streamGrid(ctx, view, *remote, *frameRate)
	}

	if *httpAddr != "" {
		srv := &http.Server{Addr: *httpAddr, Handler: newAPI(ctrl)}
		go func() {
			glog.Infof("graphql api listening on %s", *httpAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				glog.Errorf("http: %v", err)
			}
		}()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), time.Second)
			defer scancel()
			srv.Shutdown(sctx)
		}()
	}

	runErr := ctrl.Run(ctx, src)

	if err := ctrl.SaveConfig(*configFile); err != nil {
		glog.Warningf("could not save %s: %v", *configFile, err)
	}
	if *plotFile != "" {
		if err := view.SavePlot(*plotFile); err != nil {
			glog.Errorf("writing plot: %v", err)
		}
	}

	if errors.Is(runErr, motion.ErrSourceClosed) {
		glog.Infoln("motion source closed")
		return nil
	}
	return runErr
}
