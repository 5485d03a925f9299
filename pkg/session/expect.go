package session

import (
	"errors"
	"io"
	"regexp"
)

// maxExpectBuffer caps how much unmatched output is retained while waiting
// for a pattern.
const maxExpectBuffer = 64 * 1024

// expecter scans a channel's output for patterns, pexpect style. Bytes after
// a match stay buffered so they can be shown once the relay starts.
type expecter struct {
	r     io.Reader
	buf   []byte
	tmp   []byte
	match []byte // text matched by the last successful expect
}

func newExpecter(r io.Reader) *expecter {
	return &expecter{r: r, tmp: make([]byte, 4096)}
}

// expect reads until one of patterns matches the buffered output and returns
// its index. When several match, the one starting earliest wins, then the
// lowest index. The matched text and everything before it is consumed.
func (e *expecter) expect(patterns ...*regexp.Regexp) (int, error) {
	for {
		if idx, start, end := e.search(patterns); idx >= 0 {
			e.consume(start, end)
			return idx, nil
		}
		n, err := e.r.Read(e.tmp)
		if n > 0 {
			e.buf = append(e.buf, e.tmp[:n]...)
			if len(e.buf) > maxExpectBuffer {
				e.buf = append(e.buf[:0], e.buf[len(e.buf)-maxExpectBuffer:]...)
			}
			continue
		}
		if err != nil {
			if idx, start, end := e.search(patterns); idx >= 0 {
				e.consume(start, end)
				return idx, nil
			}
			if errors.Is(err, io.EOF) {
				return -1, ErrChannelClosed
			}
			return -1, err
		}
	}
}

func (e *expecter) search(patterns []*regexp.Regexp) (idx, start, end int) {
	idx, start = -1, -1
	for i, re := range patterns {
		loc := re.FindIndex(e.buf)
		if loc == nil {
			continue
		}
		if start < 0 || loc[0] < start {
			idx, start, end = i, loc[0], loc[1]
		}
	}
	return idx, start, end
}

func (e *expecter) consume(start, end int) {
	e.match = append(e.match[:0], e.buf[start:end]...)
	e.buf = append(e.buf[:0], e.buf[end:]...)
}

// buffered drains and returns output read past the last match.
func (e *expecter) buffered() []byte {
	out := e.buf
	e.buf = nil
	return out
}

// tail returns the last line-ish fragment of unmatched output, used to give
// connection errors some context.
func (e *expecter) tail() string {
	const max = 200
	b := e.buf
	if len(b) > max {
		b = b[len(b)-max:]
	}
	return string(b)
}
