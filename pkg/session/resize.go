package session

// ResizeSource delivers local terminal size changes.
type ResizeSource interface {
	// Subscribe starts delivery. stop ends it; the channel is not closed.
	Subscribe() (events <-chan Winsize, stop func())
}

// ChanResizeSource delivers whatever is sent on it.
type ChanResizeSource chan Winsize

func (c ChanResizeSource) Subscribe() (<-chan Winsize, func()) { return c, func() {} }

// forwardResize pushes size changes from src to ch until the returned stop
// function is called.
func forwardResize(src ResizeSource, ch Channel) (stop func()) {
	if src == nil {
		return func() {}
	}
	events, unsubscribe := src.Subscribe()
	done := make(chan struct{})
	go func() {
		for {
			select {
			case ws, ok := <-events:
				if !ok {
					return
				}
				_ = ch.Resize(ws)
			case <-done:
				return
			}
		}
	}()
	return func() {
		close(done)
		unsubscribe()
	}
}
