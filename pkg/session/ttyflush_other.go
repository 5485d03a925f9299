//go:build !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package session

func flushTTYInput() {}
