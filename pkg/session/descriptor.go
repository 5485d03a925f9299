package session

import (
	"regexp"
	"strconv"
	"strings"

	"sshg/pkg/manager"
)

// SSHBinary is the client executable used for every hop.
const SSHBinary = "ssh"

// Descriptor returns the ssh invocation equivalent to connecting to n:
//
//	ssh [-p <port>] [-i <keypath>] user@host
//
// It is used for display and audit and does not carry transport options.
func Descriptor(n *manager.Node) []string {
	argv := []string{SSHBinary}
	if n.Port != 0 && n.Port != manager.DefaultPort {
		argv = append(argv, "-p", strconv.Itoa(n.Port))
	}
	if n.KeyPath != "" {
		argv = append(argv, "-i", n.KeyPath)
	}
	return append(argv, n.Address())
}

// loginArgv is the command actually run for a hop: the descriptor plus the
// options that keep the login non-interactive where it can be.
func loginArgv(n *manager.Node, keyPath string) []string {
	argv := []string{SSHBinary, "-o", "StrictHostKeyChecking=no"}
	if n.Port != 0 && n.Port != manager.DefaultPort {
		argv = append(argv, "-p", strconv.Itoa(n.Port))
	}
	if keyPath != "" {
		argv = append(argv, "-i", keyPath)
	}
	return append(argv, n.Address())
}

var shellSpecial = regexp.MustCompile(`[^\w@%+=:,./-]`)

// CommandLine quotes argv for a POSIX shell. A leading "~/" is left
// unquoted so the shell that runs the line expands it.
func CommandLine(argv []string) string {
	quoted := make([]string, 0, len(argv))
	for _, a := range argv {
		if rest, ok := strings.CutPrefix(a, "~/"); ok && rest != "" {
			quoted = append(quoted, "~/"+shellQuote(rest))
			continue
		}
		quoted = append(quoted, shellQuote(a))
	}
	return strings.Join(quoted, " ")
}

func shellQuote(a string) string {
	if a == "" {
		return "''"
	}
	if shellSpecial.MatchString(a) {
		return "'" + strings.ReplaceAll(a, "'", `'"'"'`) + "'"
	}
	return a
}
