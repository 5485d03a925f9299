package session

import "golang.org/x/sys/unix"

// tcflushInput is tcflush(fd, TCIFLUSH).
func tcflushInput(fd int) error {
	return unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH)
}
