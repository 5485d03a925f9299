package session

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// terminalSize returns the size of f if it is a terminal.
func terminalSize(f *os.File) (Winsize, bool) {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return Winsize{}, false
	}
	cols, rows, err := term.GetSize(int(f.Fd()))
	if err != nil || rows <= 0 || cols <= 0 {
		return Winsize{}, false
	}
	return Winsize{Rows: uint16(rows), Cols: uint16(cols)}, true
}

// StdoutSize reports the size of the process's stdout terminal.
func StdoutSize() (Winsize, bool) { return terminalSize(os.Stdout) }

// makeRaw puts r into raw mode when it is a terminal and returns the restore
// function. For anything else it is a no-op.
func makeRaw(r io.Reader) func() {
	f, ok := r.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}
	}
	fd := int(f.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}
	}
	return func() { _ = term.Restore(fd, old) }
}

// TerminalPassword returns a PasswordFunc that reads from in without echo.
// It fails when in is not a terminal.
func TerminalPassword(in *os.File, out io.Writer) PasswordFunc {
	return func(prompt string) (string, error) {
		if in == nil || !term.IsTerminal(int(in.Fd())) {
			return "", errors.New("stdin is not a terminal")
		}
		_, _ = fmt.Fprint(out, prompt)
		b, err := term.ReadPassword(int(in.Fd()))
		_, _ = fmt.Fprint(out, "\r\n")
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
