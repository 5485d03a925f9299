package session

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func TestEnsureKeyFile_TightensPermissions(t *testing.T) {
	p := filepath.Join(t.TempDir(), "id_test")
	require.NoError(t, os.WriteFile(p, []byte("not a key"), 0o644))
	require.NoError(t, os.Chmod(p, 0o644))

	var buf bytes.Buffer
	got, err := EnsureKeyFile(p, log.New(&buf))
	require.NoError(t, err)
	assert.Equal(t, p, got)

	st, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())
	assert.Contains(t, buf.String(), "permissions too open")
	assert.Contains(t, buf.String(), "not a recognized private key")
}

func TestEnsureKeyFile_ValidKeyIsQuiet(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	block, err := ssh.MarshalPrivateKey(priv, "")
	require.NoError(t, err)

	p := filepath.Join(t.TempDir(), "id_ed25519")
	require.NoError(t, os.WriteFile(p, pem.EncodeToMemory(block), 0o600))

	var buf bytes.Buffer
	_, err = EnsureKeyFile(p, log.New(&buf))
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestEnsureKeyFile_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.WriteFile(filepath.Join(home, "k"), []byte("x"), 0o600))

	got, err := EnsureKeyFile("~/k", log.New(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "k"), got)
}

func TestEnsureKeyFile_Missing(t *testing.T) {
	_, err := EnsureKeyFile(filepath.Join(t.TempDir(), "nope"), log.New(&bytes.Buffer{}))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnsureKeyFile_Directory(t *testing.T) {
	_, err := EnsureKeyFile(t.TempDir(), log.New(&bytes.Buffer{}))
	assert.Error(t, err)
}
