//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package session

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// flushTTYInput discards unread input queued on the controlling terminal,
// such as terminal replies left behind by the host menu, so the remote shell
// does not receive them as keystrokes. It is a no-op without /dev/tty.
func flushTTYInput() {
	tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0)
	if err != nil {
		return
	}
	defer func() { _ = tty.Close() }()

	fd := int(tty.Fd())
	if fd < 0 {
		return
	}
	_ = tcflushInput(fd)

	// Catch replies that arrive right after the flush.
	_ = unix.SetNonblock(fd, true)
	defer func() { _ = unix.SetNonblock(fd, false) }()

	deadline := time.Now().Add(200 * time.Millisecond)
	buf := make([]byte, 512)
	for time.Now().Before(deadline) {
		n, _ := unix.Read(fd, buf)
		if n <= 0 {
			break
		}
		deadline = time.Now().Add(75 * time.Millisecond)
	}
}
