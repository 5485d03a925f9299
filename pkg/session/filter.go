package session

import "bytes"

// PromptSentinel is the prompt installed on gateway shells. Seeing it again
// at the end of a line means a nested session has returned to the gateway.
const PromptSentinel = "[PEXPECT]$ "

// rootPromptSentinel is the same prompt as rendered by some shells for root.
const rootPromptSentinel = "[PEXPECT]# "

// promptResetCommand installs the sentinel prompt. The quotes are split so
// the echoed command line itself never contains the sentinel.
const promptResetCommand = `unset PROMPT_COMMAND RPROMPT; PS1='[PEXPECT]''$ '`

// LineAction is the decision taken for one line of remote output.
type LineAction int

const (
	// PassThrough forwards the line to the terminal.
	PassThrough LineAction = iota
	// SuppressAndTerminate drops the line and ends the relay.
	SuppressAndTerminate
)

// ClassifyLine decides what to do with a line of gateway-relayed output.
// Trailing CR/LF are ignored.
func ClassifyLine(line []byte) LineAction {
	line = bytes.TrimRight(line, "\r\n")
	if bytes.HasSuffix(line, []byte(PromptSentinel)) || bytes.HasSuffix(line, []byte(rootPromptSentinel)) {
		return SuppressAndTerminate
	}
	return PassThrough
}

// GatewayFilter applies ClassifyLine to a byte stream. Complete lines pass
// through immediately; the unterminated tail is forwarded too, except for a
// suffix that could still grow into the sentinel, which is held back until
// the next chunk decides it.
type GatewayFilter struct {
	line    []byte // current unterminated line, already emitted up to held
	held    int    // bytes at the end of line not yet emitted
	matched bool
}

// Done reports whether the sentinel has been seen.
func (f *GatewayFilter) Done() bool { return f.matched }

// Write consumes a chunk of remote output and returns the bytes to show.
// Once the sentinel is seen, done is true and the rest of the chunk is dropped.
func (f *GatewayFilter) Write(p []byte) (out []byte, done bool) {
	if f.matched {
		return nil, true
	}
	for len(p) > 0 {
		i := bytes.IndexByte(p, '\n')
		if i < 0 {
			break
		}
		seg := p[:i+1]
		p = p[i+1:]
		pending := f.line[len(f.line)-f.held:]
		f.line = append(f.line, seg...)
		if ClassifyLine(f.line) == SuppressAndTerminate {
			f.line = f.line[:0]
			f.held = 0
			f.matched = true
			return out, true
		}
		// A complete line: whatever was held is now known not to be a prompt.
		out = append(out, pending...)
		out = append(out, seg...)
		f.line = f.line[:0]
		f.held = 0
	}

	f.line = append(f.line, p...)
	if ClassifyLine(f.line) == SuppressAndTerminate {
		// Drop the sentinel and anything held with it. Bytes of this line
		// that were already emitted stay on screen.
		emittedEnd := len(f.line) - f.held - len(p)
		if emittedEnd < 0 {
			emittedEnd = 0
		}
		start := len(f.line) - len(PromptSentinel)
		if start > emittedEnd {
			out = append(out, f.line[emittedEnd:start]...)
		}
		f.line = f.line[:0]
		f.held = 0
		f.matched = true
		return out, true
	}

	hold := sentinelPrefixLen(f.line)
	emitFrom := len(f.line) - f.held - len(p)
	emitTo := len(f.line) - hold
	if emitTo > emitFrom {
		out = append(out, f.line[emitFrom:emitTo]...)
	}
	if emitTo < emitFrom {
		// Cannot un-emit; only bytes not yet shown can be held.
		hold = len(f.line) - emitFrom
	}
	f.held = hold
	return out, false
}

// Flush returns any bytes still held back.
func (f *GatewayFilter) Flush() []byte {
	out := append([]byte(nil), f.line[len(f.line)-f.held:]...)
	f.held = 0
	return out
}

// sentinelPrefixLen returns the length of the longest suffix of line that is
// a proper prefix of one of the sentinels.
func sentinelPrefixLen(line []byte) int {
	best := 0
	for _, s := range []string{PromptSentinel, rootPromptSentinel} {
		max := len(s) - 1
		if max > len(line) {
			max = len(line)
		}
		for n := max; n > best; n-- {
			if bytes.HasSuffix(line, []byte(s[:n])) {
				best = n
				break
			}
		}
	}
	return best
}
