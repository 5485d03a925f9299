//go:build !windows
// +build !windows

package session

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// SignalResizeSource reports the size of File (stdout by default) on SIGWINCH.
type SignalResizeSource struct {
	File *os.File
}

func (s SignalResizeSource) Subscribe() (<-chan Winsize, func()) {
	f := s.File
	if f == nil {
		f = os.Stdout
	}
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)

	out := make(chan Winsize, 1)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-winch:
				ws, ok := terminalSize(f)
				if !ok {
					continue
				}
				select {
				case out <- ws:
				case <-done:
					return
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	return out, func() {
		once.Do(func() {
			signal.Stop(winch)
			close(done)
		})
	}
}
