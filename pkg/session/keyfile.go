package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/crypto/ssh"

	"sshg/pkg/manager"
)

// keyFileMode is the only permission set ssh accepts for private keys.
const keyFileMode fs.FileMode = 0o600

// EnsureKeyFile prepares a private key for use: it expands path, tightens
// permissions that grant any group/other access to owner read-write, and
// checks that the file looks like a private key.
//
// The permission fix is logged as a warning and the flow continues. A key
// that x/crypto cannot parse is also only a warning since OpenSSH may still
// understand it. The returned path is the expanded one.
func EnsureKeyFile(path string, logger *log.Logger) (string, error) {
	p := manager.ExpandPath(path)
	st, err := os.Stat(p)
	if err != nil {
		return "", fmt.Errorf("key file %s: %w", p, err)
	}
	if st.IsDir() {
		return "", fmt.Errorf("key file %s: is a directory", p)
	}

	if st.Mode().Perm()&0o077 != 0 {
		logger.Warn("key file permissions too open, changing to 0600", "path", p, "mode", fmt.Sprintf("%04o", st.Mode().Perm()))
		if err := os.Chmod(p, keyFileMode); err != nil {
			return "", fmt.Errorf("key file %s: chmod: %w", p, err)
		}
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return "", fmt.Errorf("key file %s: %w", p, err)
	}
	if _, err := ssh.ParseRawPrivateKey(data); err != nil {
		var missing *ssh.PassphraseMissingError
		if errors.As(err, &missing) {
			logger.Debug("key file is passphrase protected", "path", p)
		} else {
			logger.Warn("key file is not a recognized private key", "path", p, "err", err)
		}
	}
	return p, nil
}
