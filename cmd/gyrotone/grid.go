package main

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/peragwin/gyrotone/gfx/motionview"
	"github.com/peragwin/gyrotone/gfx/skgrid"
)

const (
	gridWidth  = 16
	gridHeight = 60
)

// streamGrid renders the view to the remote LED grid at frameRate. If the
// connection drops it retries every 10 seconds until ctx is done.
func streamGrid(ctx context.Context, view *motionview.View, addr string, frameRate int) {
	retry := time.NewTicker(10 * time.Second)
	defer retry.Stop()

	for {
		if err := showGrid(ctx, view, addr, frameRate); err != nil {
			glog.Errorf("led grid %s: %v. Retrying in 10 seconds...", addr, err)
		}
		select {
		case <-ctx.Done():
			return
		case <-retry.C:
		}
	}
}

func showGrid(ctx context.Context, view *motionview.View, addr string, frameRate int) error {
	rem, err := skgrid.NewRemote(addr, time.Second)
	if err != nil {
		return err
	}
	grid, err := skgrid.NewGrid(gridWidth, gridHeight, rem, skgrid.Options{Transpose: true})
	if err != nil {
		rem.Close()
		return err
	}
	defer grid.Close()
	glog.Infof("streaming to led grid at %s", addr)

	frame := time.NewTicker(time.Second / time.Duration(frameRate))
	defer frame.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-frame.C:
			if err := view.Show(grid); err != nil {
				return err
			}
		}
	}
}
