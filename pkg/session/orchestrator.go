package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"sshg/pkg/manager"
)

var (
	bannerNameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	noticeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// endOfInteract is printed when a gateway session returns to the gateway.
const endOfInteract = "END OF INTERACT"

// Orchestrator turns a selected node into an interactive terminal session,
// logging in through its gateway chain when it has one.
//
// Zero-value fields fall back to the process terminal; New fills in the
// production defaults explicitly.
type Orchestrator struct {
	Dialer Dialer
	Resize ResizeSource
	Stdin  io.Reader
	Stdout io.Writer
	Logger *log.Logger

	// Sleep waits between callback commands.
	Sleep func(ctx context.Context, d time.Duration) error

	// Password is asked when a password prompt appears and the node has none.
	Password PasswordFunc

	// FlushInput drops stale terminal input before the first hop is spawned.
	FlushInput func()
}

// New returns an Orchestrator wired to the local terminal.
func New(logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		Dialer:     PTYDialer{Size: StdoutSize},
		Resize:     SignalResizeSource{File: os.Stdout},
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Logger:     logger,
		Sleep:      sleepContext,
		Password:   TerminalPassword(os.Stdin, os.Stdout),
		FlushInput: flushTTYInput,
	}
}

// Connect logs in to n and relays the terminal until the session ends.
//
// Without a gateway the local ssh is attached directly. With one, every
// gateway is logged into in turn over the same local channel, its prompt
// replaced by the sentinel, and n is reached by typing ssh into the last
// gateway's shell. The relay then stops as soon as the sentinel prompt comes
// back, which means the nested session exited.
//
// Failures are returned as *ConnectionError. Nothing is retried.
func (o *Orchestrator) Connect(ctx context.Context, n *manager.Node) error {
	if n == nil {
		return errors.New("connect: no node")
	}
	chain, err := gatewayChain(n)
	if err != nil {
		return &ConnectionError{Host: n.Address(), Err: err}
	}
	logger := o.logger().With("session", uuid.NewString())
	logger.Debug("connect", "target", n.Address(), "hops", len(chain))

	first := chain[0]
	if first.Host == "" {
		return &ConnectionError{Host: first.Name, Err: ErrNoHost}
	}
	keyPath := ""
	if first.KeyPath != "" {
		if keyPath, err = EnsureKeyFile(first.KeyPath, logger); err != nil {
			return &ConnectionError{Host: first.Address(), Err: err}
		}
	}
	o.banner(first)
	if o.FlushInput != nil {
		o.FlushInput()
	}

	ch, err := o.dialer().Dial(ctx, loginArgv(first, keyPath))
	if err != nil {
		return &ConnectionError{Host: first.Address(), Err: err}
	}
	defer func() { _ = ch.Close() }()
	stopOnCancel := context.AfterFunc(ctx, func() { _ = ch.Close() })
	defer stopOnCancel()

	// Only the outermost local pty follows the local window size.
	stopResize := forwardResize(o.Resize, ch)
	defer stopResize()

	exp := newExpecter(ch)
	for i, hop := range chain {
		gateway := i < len(chain)-1
		if i > 0 {
			if hop.Host == "" {
				return &ConnectionError{Host: hop.Name, Hop: i, Err: ErrNoHost}
			}
			nestedKey, err := nestedKeyPath(hop.KeyPath, logger)
			if err != nil {
				return &ConnectionError{Host: hop.Address(), Hop: i, Err: err}
			}
			o.banner(hop)
			if err := sendLine(ch, CommandLine(loginArgv(hop, nestedKey))); err != nil {
				return &ConnectionError{Host: hop.Address(), Hop: i, Err: err}
			}
		}
		if err := login(ch, exp, hop, i > 0, o.Password); err != nil {
			return &ConnectionError{Host: hop.Address(), Hop: i, Err: err}
		}
		logger.Debug("logged in", "host", hop.Address(), "hop", i)

		if gateway {
			if err := resetPrompt(ch, exp); err != nil {
				return &ConnectionError{Host: hop.Address(), Hop: i, Err: err}
			}
		}
		if err := o.runCallbacks(ctx, ch, exp, hop, gateway); err != nil {
			return &ConnectionError{Host: hop.Address(), Hop: i, Err: err}
		}
	}

	target := len(chain) - 1
	if target == 0 {
		if _, err := relay(ch, o.stdin(), o.stdout(), exp.buffered(), nil); err != nil && ctx.Err() == nil {
			return &ConnectionError{Host: n.Address(), Err: err}
		}
		return nil
	}

	if err := sendLine(ch, ""); err != nil {
		return &ConnectionError{Host: n.Address(), Hop: target, Err: err}
	}
	returned, err := relay(ch, o.stdin(), o.stdout(), exp.buffered(), &GatewayFilter{})
	_ = ch.Close()
	_, _ = fmt.Fprintln(o.stdout(), noticeStyle.Render(endOfInteract))
	logger.Debug("relay ended", "returned_to_gateway", returned)
	if err != nil && ctx.Err() == nil {
		return &ConnectionError{Host: n.Address(), Hop: target, Err: err}
	}
	return nil
}

// runCallbacks types each callback command after its delay. On a gateway the
// sentinel prompt that follows each command is consumed so the next login
// does not mistake it for a return to the gateway.
func (o *Orchestrator) runCallbacks(ctx context.Context, w io.Writer, exp *expecter, n *manager.Node, gateway bool) error {
	for _, cb := range n.CallbackShells {
		if cb.Delay > 0 {
			if err := o.sleep(ctx, time.Duration(cb.Delay)*time.Second); err != nil {
				return err
			}
		}
		if err := sendLine(w, cb.Command); err != nil {
			return err
		}
		if gateway {
			if _, err := exp.expect(sentinelRe); err != nil {
				return fmt.Errorf("callback %q: %w", cb.Command, err)
			}
		}
	}
	return nil
}

// nestedKeyPath prepares the key path typed into a gateway shell. A key
// that exists locally gets the same checks as a first hop and is passed
// expanded; anything else is left for the gateway to resolve.
func nestedKeyPath(path string, logger *log.Logger) (string, error) {
	if path == "" {
		return "", nil
	}
	if _, err := os.Stat(manager.ExpandPath(path)); err != nil {
		logger.Debug("key file not found locally, leaving it to the gateway", "path", path)
		return path, nil
	}
	return EnsureKeyFile(path, logger)
}

func (o *Orchestrator) banner(n *manager.Node) {
	_, _ = fmt.Fprintf(o.stdout(), "%s %s\r\n", bannerNameStyle.Render(n.Name), CommandLine(Descriptor(n)))
}

// gatewayChain returns the hops needed to reach n, outermost gateway first
// and n last.
func gatewayChain(n *manager.Node) ([]*manager.Node, error) {
	seen := map[*manager.Node]bool{}
	var chain []*manager.Node
	for cur := n; cur != nil; cur = cur.Via {
		if seen[cur] {
			return nil, fmt.Errorf("gateway loop at %s", cur.Address())
		}
		seen[cur] = true
		chain = append(chain, cur)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) dialer() Dialer {
	if o.Dialer != nil {
		return o.Dialer
	}
	return PTYDialer{Size: StdoutSize}
}

func (o *Orchestrator) stdin() io.Reader {
	if o.Stdin != nil {
		return o.Stdin
	}
	return os.Stdin
}

func (o *Orchestrator) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

func (o *Orchestrator) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if o.Sleep != nil {
		return o.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}
