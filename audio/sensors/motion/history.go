package motion

import (
	"time"

	"github.com/peragwin/gyrotone/audio/util"
)

// history stores readings oldest to newest. With a positive size it keeps
// only the most recent size readings.
type history struct {
	ring *util.Ring[Reading]
	list []Reading
}

func newHistory(size int) *history {
	if size > 0 {
		return &history{ring: util.NewRing[Reading](size)}
	}
	return &history{}
}

func (h *history) push(r Reading) {
	if h.ring != nil {
		h.ring.Push(r)
		return
	}
	h.list = append(h.list, r)
}

func (h *history) len() int {
	if h.ring != nil {
		return h.ring.Len()
	}
	return len(h.list)
}

// at returns the i'th most recent reading.
func (h *history) at(i int) Reading {
	if h.ring != nil {
		return h.ring.At(i)
	}
	return h.list[len(h.list)-1-i]
}

// evictBefore drops readings older than t, scanning from the oldest and
// stopping at the first one that is not.
func (h *history) evictBefore(t time.Time) {
	n := h.len()
	k := 0
	for k < n && h.at(n-1-k).Time.Before(t) {
		k++
	}
	if k == 0 {
		return
	}
	if h.ring != nil {
		h.ring.Discard(k)
		return
	}
	h.list = append(h.list[:0], h.list[k:]...)
}
