//go:build windows
// +build windows

package session

import "os"

// SignalResizeSource never fires on Windows, which has no SIGWINCH.
type SignalResizeSource struct {
	File *os.File
}

func (SignalResizeSource) Subscribe() (<-chan Winsize, func()) {
	return make(chan Winsize), func() {}
}
