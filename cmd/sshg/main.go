package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"sshg/pkg/manager"
	"sshg/pkg/session"
)

const version = "0.1.0"

// runner holds the steps of one invocation so tests can replace the
// interactive ones.
type runner struct {
	stdout io.Writer
	stderr io.Writer

	selectHost func(roots []*manager.Node, opts manager.Options) (*manager.Node, error)
	connect    func(ctx context.Context, logger *log.Logger, n *manager.Node) error
}

func defaultRunner() *runner {
	return &runner{
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		selectHost: manager.RunTUI,
		connect: func(ctx context.Context, logger *log.Logger, n *manager.Node) error {
			return session.New(logger).Connect(ctx, n)
		},
	}
}

func newRootCmd(r *runner) *cobra.Command {
	var (
		confPath string
		debug    bool
	)
	cmd := &cobra.Command{
		Use:           "sshg [-c config]",
		Short:         "Pick a host from a tree menu and ssh to it, through gateways if configured",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger(r.stderr, debug || envTruthy("SSHG_DEBUG"))
			return r.run(cmd.Context(), logger, confPath)
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetOut(r.stdout)
	cmd.SetErr(r.stderr)
	cmd.Flags().StringVarP(&confPath, "conf", "c", "", "config file (default: first of "+strings.Join(manager.ConfigPathCandidates(""), ", ")+")")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}

func (r *runner) run(ctx context.Context, logger *log.Logger, confPath string) error {
	roots, path, err := manager.LoadConfig(confPath)
	if err != nil {
		return err
	}
	logger.Debug("config loaded", "path", path, "hosts", len(roots))

	node, err := r.selectHost(roots, manager.Options{Style: manager.StyleFromEnv()})
	if err != nil {
		return err
	}
	if node == nil {
		logger.Debug("selection cancelled")
		return nil
	}
	return r.connect(ctx, logger, node)
}

func newLogger(w io.Writer, debug bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "sshg"})
	if debug {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

func envTruthy(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := defaultRunner()
	if err := newRootCmd(r).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(r.stderr, "sshg:", err)
		stop()
		os.Exit(exitCodeFromErr(err))
	}
}

// exitCodeFromErr maps a run error to the process exit status. Config and
// connection failures are both fatal and share status 1.
func exitCodeFromErr(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
