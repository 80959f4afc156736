package audio

import (
	"github.com/golang/glog"
	"github.com/peragwin/gyrotone/audio/util"
)

// Buffer turns every incoming block into an overlapping outgoing frame of the given size.
// Until enough blocks have arrived the older part of the frame is zero.
// It also converts the float32 blocks of the synth tap to float64 so they can be fed to
// the analyser.
func Buffer(done <-chan struct{}, in <-chan []float32, size int) chan []float64 {

	out := make(chan []float64, 16)

	go func() {
		defer close(out)
		ring := util.NewRing[float64](size)

		for {
			select {
			case <-done:
				return
			case x, ok := <-in:
				if !ok {
					return
				}
				for _, v := range x {
					ring.Push(float64(v))
				}

				select {
				case out <- ring.Get(size):
				default:
					glog.Warningln("analysis buffer overrun! Frame was dropped.")
				}
			}
		}
	}()

	return out
}
