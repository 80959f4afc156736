package audio

// Node runs nodeFunc over every frame of in on its own goroutine. The output is
// closed when in closes or done fires.
func Node[I, O any](done <-chan struct{}, in <-chan I, nodeFunc func(I) O) chan O {
	out := make(chan O)

	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case frame, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- nodeFunc(frame):
				case <-done:
					return
				}
			}
		}
	}()

	return out
}
