//go:build darwin || freebsd || netbsd || openbsd || dragonfly

package session

import "golang.org/x/sys/unix"

// fread selects the input queue for TIOCFLUSH (FREAD in sys/fcntl.h).
const fread = 0x1

// tcflushInput is tcflush(fd, TCIFLUSH), which these systems implement as
// TIOCFLUSH with FREAD.
func tcflushInput(fd int) error {
	return unix.IoctlSetPointerInt(fd, unix.TIOCFLUSH, fread)
}
