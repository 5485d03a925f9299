package session

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"sshg/pkg/manager"
)

var (
	hostKeyRe  = regexp.MustCompile(`(?i)are you sure you want to continue connecting`)
	passwordRe = regexp.MustCompile(`(?i)(?:password|passcode)\s*:|passphrase for key[^:\r\n]*:`)
	deniedRe   = regexp.MustCompile(`(?i)permission denied`)
	termTypeRe = regexp.MustCompile(`(?i)terminal type`)
	closedRe   = regexp.MustCompile(`(?i)connection closed by[^\r\n]*|connection refused|could not resolve hostname[^\r\n]*|no route to host|connection timed out|network is unreachable|host key verification failed`)
	sentinelRe = regexp.MustCompile(`\[PEXPECT\][$#] `)
	shellRe    = regexp.MustCompile(`[#$]`)

	// promptEndRe accepts zsh and fish style prompts ("%", ">") once output
	// pauses on them.
	promptEndRe = regexp.MustCompile(`[#$%>]\s*$`)
)

// login outcomes, indexed like the patterns slice built by loginPatterns.
const (
	outHostKey = iota
	outPassword
	outDenied
	outTermType
	outClosed
	outShell
	outPromptEnd
	outGateway
)

func loginPatterns(nested bool) []*regexp.Regexp {
	p := []*regexp.Regexp{hostKeyRe, passwordRe, deniedRe, termTypeRe, closedRe, shellRe, promptEndRe}
	if nested {
		// Matching the gateway prompt again means the nested ssh exited.
		p = append(p, sentinelRe)
	}
	return p
}

// PasswordFunc asks the user for a password when none is configured.
type PasswordFunc func(prompt string) (string, error)

// login drives one ssh client from spawn to shell prompt. The configured
// password is offered once; a second password prompt or any "permission
// denied" fails with ErrAuthFailed. With no configured password, ask is used
// to obtain one from the user.
func login(w io.Writer, exp *expecter, n *manager.Node, nested bool, ask PasswordFunc) error {
	patterns := loginPatterns(nested)
	answered := false
	for {
		idx, err := exp.expect(patterns...)
		if err != nil {
			if errors.Is(err, ErrChannelClosed) {
				if t := strings.TrimSpace(exp.tail()); t != "" {
					return fmt.Errorf("%w: %s", ErrChannelClosed, lastLine(t))
				}
			}
			return err
		}

		switch idx {
		case outHostKey:
			if err := sendLine(w, "yes"); err != nil {
				return err
			}
		case outPassword:
			if answered {
				return ErrAuthFailed
			}
			answered = true
			pw, err := passwordFor(n, string(exp.match), ask)
			if err != nil {
				return err
			}
			if err := sendLine(w, pw); err != nil {
				return err
			}
		case outDenied:
			return ErrAuthFailed
		case outTermType:
			if err := sendLine(w, "ansi"); err != nil {
				return err
			}
		case outClosed:
			return fmt.Errorf("%w: %s", ErrChannelClosed, strings.TrimSpace(string(exp.match)))
		case outShell, outPromptEnd:
			return nil
		case outGateway:
			return fmt.Errorf("%w: back at gateway prompt", ErrChannelClosed)
		}
	}
}

func passwordFor(n *manager.Node, prompt string, ask PasswordFunc) (string, error) {
	if n.HasPassword() {
		return n.PasswordText(), nil
	}
	if ask == nil {
		return "", fmt.Errorf("%w: password requested but none configured", ErrAuthFailed)
	}
	pw, err := ask(strings.TrimSpace(prompt) + " ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return pw, nil
}

// resetPrompt replaces the remote prompt with the sentinel and waits for it.
func resetPrompt(w io.Writer, exp *expecter) error {
	if err := sendLine(w, promptResetCommand); err != nil {
		return err
	}
	if _, err := exp.expect(sentinelRe); err != nil {
		return fmt.Errorf("set gateway prompt: %w", err)
	}
	return nil
}

// sendLine writes s followed by a carriage return, as a terminal would.
func sendLine(w io.Writer, s string) error {
	_, err := io.WriteString(w, s+"\r")
	return err
}

func lastLine(s string) string {
	s = strings.TrimRight(s, "\r\n")
	if i := strings.LastIndexAny(s, "\r\n"); i >= 0 {
		return s[i+1:]
	}
	return s
}
