package session

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthFailed is returned when the remote side rejects the credentials.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrChannelClosed is returned when the session ends before login completes.
	ErrChannelClosed = errors.New("connection closed")

	// ErrNoHost is returned when a node has no host to connect to.
	ErrNoHost = errors.New("no host configured")
)

// ConnectionError reports a failure at one hop of a (possibly chained)
// connection attempt.
type ConnectionError struct {
	// Host is the address (user@host) of the hop that failed.
	Host string
	// Hop is the position in the chain, 0 being the outermost gateway.
	Hop int
	Err error
}

func (e *ConnectionError) Error() string {
	if e.Hop > 0 {
		return fmt.Sprintf("connect %s (hop %d): %v", e.Host, e.Hop, e.Err)
	}
	return fmt.Sprintf("connect %s: %v", e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }
