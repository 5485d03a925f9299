package session

import (
	"errors"
	"io"
	"time"

	"github.com/muesli/cancelreader"
)

// relay connects the user's terminal to ch until the remote side closes or,
// with a filter, the gateway prompt reappears, in which case it reports true.
// pending is output read during login that has not been shown yet.
func relay(ch Channel, stdin io.Reader, stdout io.Writer, pending []byte, filter *GatewayFilter) (bool, error) {
	restore := makeRaw(stdin)
	defer restore()

	show := func(p []byte) (bool, error) {
		if filter == nil {
			_, err := stdout.Write(p)
			return false, err
		}
		out, done := filter.Write(p)
		if len(out) > 0 {
			if _, err := stdout.Write(out); err != nil {
				return false, err
			}
		}
		return done, nil
	}

	if len(pending) > 0 {
		if done, err := show(pending); done || err != nil {
			return done, err
		}
	}

	stop := pumpInput(stdin, ch)
	defer stop()

	buf := make([]byte, 32*1024)
	for {
		n, err := ch.Read(buf)
		if n > 0 {
			done, werr := show(buf[:n])
			if werr != nil {
				return false, werr
			}
			if done {
				return true, nil
			}
		}
		if err != nil {
			if filter != nil {
				_, _ = stdout.Write(filter.Flush())
			}
			if errors.Is(err, io.EOF) {
				return false, nil
			}
			return false, err
		}
	}
}

// pumpInput copies stdin to w in the background. The returned function
// cancels the copy and waits briefly for it to finish.
func pumpInput(stdin io.Reader, w io.Writer) (stop func()) {
	in, err := cancelreader.NewReader(stdin)
	if err != nil {
		go func() { _, _ = io.Copy(w, stdin) }()
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = io.Copy(w, in)
	}()
	return func() {
		if in.Cancel() {
			select {
			case <-done:
			case <-time.After(500 * time.Millisecond):
			}
		}
		_ = in.Close()
	}
}
