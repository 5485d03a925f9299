package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	"github.com/creack/pty"
)

// Winsize is a terminal size in character cells.
type Winsize struct {
	Rows uint16
	Cols uint16
}

// Channel is a bidirectional pseudo-terminal session to a spawned client.
type Channel interface {
	io.ReadWriteCloser
	Resize(ws Winsize) error
}

// Dialer spawns argv attached to a new Channel.
type Dialer interface {
	Dial(ctx context.Context, argv []string) (Channel, error)
}

// PTYDialer runs commands under a local pseudo-terminal.
type PTYDialer struct {
	// Size reports the size to give new terminals. Nil or !ok leaves the
	// pty default.
	Size func() (Winsize, bool)
}

// Dial starts argv under a pty, seeded with the current terminal size.
func (d PTYDialer) Dial(ctx context.Context, argv []string) (Channel, error) {
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, fmt.Errorf("pty start: %w", err)
	}
	ch := &ptyChannel{cmd: cmd, ptmx: ptmx}
	if d.Size != nil {
		if ws, ok := d.Size(); ok {
			_ = ch.Resize(ws)
		}
	}
	return ch, nil
}

type ptyChannel struct {
	cmd  *exec.Cmd
	ptmx *os.File

	once sync.Once
	err  error
}

// Read maps the EIO Linux returns once the child side closes to io.EOF.
func (c *ptyChannel) Read(p []byte) (int, error) {
	n, err := c.ptmx.Read(p)
	if err != nil && errors.Is(err, syscall.EIO) {
		err = io.EOF
	}
	return n, err
}

func (c *ptyChannel) Write(p []byte) (int, error) { return c.ptmx.Write(p) }

func (c *ptyChannel) Resize(ws Winsize) error {
	if ws.Rows == 0 || ws.Cols == 0 {
		return nil
	}
	return pty.Setsize(c.ptmx, &pty.Winsize{Rows: ws.Rows, Cols: ws.Cols})
}

// Close closes the pty and reaps the client, killing it if it is still running.
func (c *ptyChannel) Close() error {
	c.once.Do(func() {
		c.err = c.ptmx.Close()
		if c.cmd.ProcessState == nil && c.cmd.Process != nil {
			_ = c.cmd.Process.Kill()
		}
		_ = c.cmd.Wait()
	})
	return c.err
}
