package session

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"
)

// fakeChannel is a scripted remote end. Lines written by the orchestrator
// arrive on in, split at carriage returns; the script writes output with say.
type fakeChannel struct {
	in      chan string
	outR    *io.PipeReader
	outW    *io.PipeWriter
	resized chan Winsize
	done    chan struct{}

	mu      sync.Mutex
	partial strings.Builder
	closed  bool
}

func newFakeChannel() *fakeChannel {
	r, w := io.Pipe()
	return &fakeChannel{
		in:      make(chan string, 64),
		outR:    r,
		outW:    w,
		resized: make(chan Winsize, 8),
		done:    make(chan struct{}),
	}
}

func (c *fakeChannel) Read(p []byte) (int, error) { return c.outR.Read(p) }

func (c *fakeChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, io.ErrClosedPipe
	}
	for _, b := range p {
		if b == '\r' {
			c.in <- c.partial.String()
			c.partial.Reset()
			continue
		}
		c.partial.WriteByte(b)
	}
	return len(p), nil
}

func (c *fakeChannel) Resize(ws Winsize) error {
	c.resized <- ws
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return c.outW.CloseWithError(io.EOF)
}

func (c *fakeChannel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// say writes remote output; errors mean the orchestrator closed the channel.
func (c *fakeChannel) say(s string) { _, _ = io.WriteString(c.outW, s) }

// hangup ends the remote output stream.
func (c *fakeChannel) hangup() { _ = c.outW.Close() }

// recv returns the next line typed by the orchestrator.
func (c *fakeChannel) recv() string {
	select {
	case l := <-c.in:
		return l
	case <-time.After(5 * time.Second):
		return "<timeout>"
	}
}

// sent drains every line typed so far without waiting.
func (c *fakeChannel) sent() []string {
	var out []string
	for {
		select {
		case l := <-c.in:
			out = append(out, l)
		default:
			return out
		}
	}
}

type fakeDialer struct {
	script func(c *fakeChannel)

	argv [][]string
	ch   *fakeChannel
}

func (d *fakeDialer) Dial(_ context.Context, argv []string) (Channel, error) {
	d.argv = append(d.argv, argv)
	d.ch = newFakeChannel()
	go func(c *fakeChannel) {
		defer close(c.done)
		d.script(c)
	}(d.ch)
	return d.ch, nil
}

// wait blocks until the script has returned.
func (d *fakeDialer) wait() bool {
	if d.ch == nil {
		return true
	}
	select {
	case <-d.ch.done:
		return true
	case <-time.After(5 * time.Second):
		return false
	}
}

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}
