package util

import (
	"sync"
)

// Ring implements a fixed capacity circular buffer. Pushing past the capacity
// overwrites the oldest values.
type Ring[T any] struct {
	sync.RWMutex
	buf   []T
	index int
	count int
}

// NewRing creates a new ring with the given capacity.
func NewRing[T any](size int) *Ring[T] {
	if size <= 0 {
		panic("ring size must be positive")
	}
	return &Ring[T]{buf: make([]T, size)}
}

// Cap is the capacity of the ring.
func (r *Ring[T]) Cap() int {
	return len(r.buf)
}

// Len is the number of values pushed and not yet overwritten or discarded.
func (r *Ring[T]) Len() int {
	r.RLock()
	defer r.RUnlock()
	return r.count
}

// Push data onto the ring.
func (r *Ring[T]) Push(data ...T) {
	if len(data) > len(r.buf) {
		panic("cant push data longer than size of buffer")
	}

	r.Lock()
	defer r.Unlock()

	for _, d := range data {
		r.buf[r.index] = d
		r.index = (r.index + 1) % len(r.buf)
	}
	r.count += len(data)
	if r.count > len(r.buf) {
		r.count = len(r.buf)
	}
}

// At returns the i'th most recent value, At(0) being the newest.
func (r *Ring[T]) At(i int) T {
	r.RLock()
	defer r.RUnlock()

	if i < 0 || i >= r.count {
		panic("ring index out of range")
	}
	idx := r.index - 1 - i
	if idx < 0 {
		idx += len(r.buf)
	}
	return r.buf[idx]
}

// Discard forgets the n oldest values.
func (r *Ring[T]) Discard(n int) {
	r.Lock()
	defer r.Unlock()

	if n > r.count {
		n = r.count
	}
	if n > 0 {
		r.count -= n
	}
}

// Values returns every live value, oldest first.
func (r *Ring[T]) Values() []T {
	return r.Get(r.Len())
}

// Get the most recent N values from the buffer, oldest first.
func (r *Ring[T]) Get(size int) []T {
	return r.GetOffset(size, 0)
}

// GetOffset gets the most recent N values from the buffer, offset minus M values.
// The window wraps around the underlying storage, so slots that were never
// written come back as zero values.
func (r *Ring[T]) GetOffset(size, offset int) []T {
	if size > len(r.buf) {
		panic("cant get size greater than size of buffer")
	}

	r.RLock()
	defer r.RUnlock()

	n := len(r.buf)
	ret := make([]T, size)
	start := r.index - offset - size
	for i := range ret {
		ret[i] = r.buf[((start+i)%n+n)%n]
	}
	return ret
}
