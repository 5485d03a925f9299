package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sshg/pkg/manager"
	"sshg/pkg/session"
)

func testRunner() (*runner, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &runner{
		stdout: &out,
		stderr: &errOut,
		selectHost: func([]*manager.Node, manager.Options) (*manager.Node, error) {
			return nil, errors.New("selector should not run")
		},
		connect: func(context.Context, *log.Logger, *manager.Node) error {
			return errors.New("connect should not run")
		},
	}, &out, &errOut
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "hosts.yml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestVersionFlag(t *testing.T) {
	for _, flag := range []string{"-v", "--version"} {
		r, out, _ := testRunner()
		cmd := newRootCmd(r)
		cmd.SetArgs([]string{flag})
		require.NoError(t, cmd.Execute())
		assert.Equal(t, version+"\n", out.String())
	}
}

func TestMissingConfig(t *testing.T) {
	r, _, _ := testRunner()
	cmd := newRootCmd(r)
	cmd.SetArgs([]string{"-c", filepath.Join(t.TempDir(), "absent.yml")})

	err := cmd.Execute()
	assert.ErrorIs(t, err, manager.ErrConfigNotFound)
	assert.Equal(t, 1, exitCodeFromErr(err))
}

func TestCancelledSelectionExitsCleanly(t *testing.T) {
	r, _, _ := testRunner()
	r.selectHost = func(roots []*manager.Node, _ manager.Options) (*manager.Node, error) {
		require.Len(t, roots, 1)
		return nil, nil
	}
	cmd := newRootCmd(r)
	cmd.SetArgs([]string{"--conf", writeConfig(t, "- host: a\n")})
	assert.NoError(t, cmd.Execute())
}

func TestSelectedHostIsConnected(t *testing.T) {
	r, _, _ := testRunner()
	r.selectHost = func(roots []*manager.Node, _ manager.Options) (*manager.Node, error) {
		return roots[0].Children[0], nil
	}
	var got *manager.Node
	r.connect = func(_ context.Context, _ *log.Logger, n *manager.Node) error {
		got = n
		return nil
	}
	cmd := newRootCmd(r)
	cmd.SetArgs([]string{"-c", writeConfig(t, "- name: g\n  user: ops\n  children:\n    - name: web\n      host: 10.0.0.5\n")})

	require.NoError(t, cmd.Execute())
	require.NotNil(t, got)
	assert.Equal(t, "ops@10.0.0.5", got.Address())
	assert.Equal(t, 22, got.Port)
}

func TestDebugLogging(t *testing.T) {
	r, _, errOut := testRunner()
	r.selectHost = func([]*manager.Node, manager.Options) (*manager.Node, error) { return nil, nil }
	cmd := newRootCmd(r)
	cmd.SetArgs([]string{"--debug", "-c", writeConfig(t, "- host: a\n")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errOut.String(), "config loaded")
}

func TestExitCodeFromErr(t *testing.T) {
	assert.Equal(t, 0, exitCodeFromErr(nil))
	assert.Equal(t, 1, exitCodeFromErr(errors.New("boom")))
	assert.Equal(t, 1, exitCodeFromErr(&session.ConnectionError{Host: "u@h", Err: session.ErrAuthFailed}))
}
