// Package manager contains the host catalog, its inheritance rules and the
// interactive selector used by sshg.
package manager

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultPort is applied to any node whose port is unset after inheritance.
const DefaultPort = 22

// Node is a host catalog entry. A node with children is a group; a node
// without children is a connectable leaf.
//
// Example YAML:
//
//	- name: db
//	  host: 10.0.0.1
//	- name: prod
//	  user: ops
//	  keypath: ~/.ssh/prod
//	  via:
//	    host: bastion.example.com
//	  children:
//	    - name: web1
//	      host: 10.1.0.11
//	      callback-shells:
//	        - {cmd: "cd /srv", delay: 1}
type Node struct {
	Name           string          `yaml:"name,omitempty" toml:"name"`
	User           string          `yaml:"user,omitempty" toml:"user"`
	Host           string          `yaml:"host,omitempty" toml:"host"`
	Port           int             `yaml:"port,omitempty" toml:"port"`
	KeyPath        string          `yaml:"keypath,omitempty" toml:"keypath"`
	Password       *Secret         `yaml:"password,omitempty" toml:"password"`
	CallbackShells []CallbackShell `yaml:"callback-shells,omitempty" toml:"callback-shells"`
	Children       []*Node         `yaml:"children,omitempty" toml:"children"`

	// Via is a gateway that must be logged into before this node. It is a
	// shared reference, not part of the children subtree.
	Via *Node `yaml:"via,omitempty" toml:"via"`
}

// CallbackShell is a command typed into the remote shell after login.
type CallbackShell struct {
	Command string `yaml:"cmd" toml:"cmd"`

	// Delay is the number of seconds to wait before sending Command.
	Delay int `yaml:"delay,omitempty" toml:"delay"`
}

// IsGroup reports whether n has children.
func (n *Node) IsGroup() bool { return n != nil && len(n.Children) > 0 }

// IsLeaf reports whether n is a connectable host.
func (n *Node) IsLeaf() bool { return n != nil && len(n.Children) == 0 }

// Address returns "user@host".
func (n *Node) Address() string {
	if n.User == "" {
		return n.Host
	}
	return n.User + "@" + n.Host
}

// HasPassword reports whether a password was configured for n (directly or
// through inheritance).
func (n *Node) HasPassword() bool { return n.Password != nil }

// PasswordText returns the configured password, or "" when none is set.
func (n *Node) PasswordText() string {
	if n.Password == nil {
		return ""
	}
	return n.Password.String()
}

// Secret holds a password in its normalized text form. Integers in the
// config file are converted to their decimal representation.
type Secret string

// NewSecret returns a pointer to a Secret holding s.
func NewSecret(s string) *Secret {
	v := Secret(s)
	return &v
}

func (s Secret) String() string { return string(s) }

// UnmarshalYAML accepts either a string or an integer scalar.
func (s *Secret) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: password must be text or an integer", value.Line)
	}
	switch value.ShortTag() {
	case "!!int":
		var i int64
		if err := value.Decode(&i); err == nil {
			*s = Secret(strconv.FormatInt(i, 10))
			return nil
		}
		var u uint64
		if err := value.Decode(&u); err != nil {
			return fmt.Errorf("line %d: password: %w", value.Line, err)
		}
		*s = Secret(strconv.FormatUint(u, 10))
	case "!!str":
		*s = Secret(value.Value)
	default:
		return fmt.Errorf("line %d: password must be text or an integer, got %s", value.Line, value.ShortTag())
	}
	return nil
}

// UnmarshalTOML accepts either a string or an integer value.
func (s *Secret) UnmarshalTOML(v any) error {
	p, err := NormalizePassword(v)
	if err != nil {
		return err
	}
	if p != nil {
		*s = *p
	}
	return nil
}

// NormalizePassword converts a decoded password value into its text form.
// A nil input yields a nil Secret, meaning "no password".
func NormalizePassword(v any) (*Secret, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return NewSecret(t), nil
	case int:
		return NewSecret(strconv.Itoa(t)), nil
	case int64:
		return NewSecret(strconv.FormatInt(t, 10)), nil
	case uint64:
		return NewSecret(strconv.FormatUint(t, 10)), nil
	default:
		return nil, fmt.Errorf("password must be text or an integer, got %T", v)
	}
}

// ErrConfigNotFound is returned when no configuration file can be located.
var ErrConfigNotFound = errors.New("config not found")

// ConfigError reports a configuration file that could not be read, parsed or
// validated.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return "config: " + e.Err.Error()
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// defaultConfigNames are looked up in the home directory, in order.
var defaultConfigNames = []string{
	".sshg.yml",
	".sshx.yml",
	".sshx.yaml",
	".sshw.yml",
	".sshw.yaml",
	".sshg.toml",
}

// tomlConfig is the on-disk shape of a TOML catalog; TOML has no top-level
// arrays, so hosts live under a "hosts" key.
type tomlConfig struct {
	Hosts []*Node `toml:"hosts"`
}

// LoadConfig discovers, parses, validates and resolves the host catalog.
// If explicitPath is non-empty it is the only candidate; otherwise the
// well-known files in the home directory are tried in order and the first
// one that exists is used.
//
// Returns the resolved roots and the path that was used.
func LoadConfig(explicitPath string) ([]*Node, string, error) {
	for _, p := range ConfigPathCandidates(explicitPath) {
		p = expandPath(p)
		if p == "" {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, p, &ConfigError{Path: p, Err: err}
		}
		roots, err := ParseConfig(p, data)
		if err != nil {
			return nil, p, &ConfigError{Path: p, Err: err}
		}
		if err := Validate(roots); err != nil {
			return nil, p, &ConfigError{Path: p, Err: err}
		}
		Resolve(roots)
		return roots, p, nil
	}
	if explicitPath != "" {
		return nil, "", &ConfigError{Path: explicitPath, Err: ErrConfigNotFound}
	}
	return nil, "", &ConfigError{Err: ErrConfigNotFound}
}

// ConfigPathCandidates returns the configuration file paths to try, in
// priority order. An explicit path replaces the default list.
func ConfigPathCandidates(explicitPath string) []string {
	if explicitPath != "" {
		return []string{explicitPath}
	}
	out := make([]string, 0, len(defaultConfigNames))
	for _, name := range defaultConfigNames {
		out = append(out, filepath.Join("~", name))
	}
	return out
}

// ParseConfig decodes raw config bytes. The format is chosen from the file
// extension: ".toml" uses TOML, everything else YAML.
func ParseConfig(path string, data []byte) ([]*Node, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var tc tomlConfig
		if _, err := toml.Decode(string(data), &tc); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		return tc.Hosts, nil
	}
	var roots []*Node
	if err := yaml.Unmarshal(data, &roots); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return roots, nil
}

// Validate performs schema checks on an unresolved catalog.
//
// - The top-level list must not be empty.
// - port must be within 0..65535 (0 means unset).
// - callback-shells entries need a non-empty cmd and a delay >= 0.
//
// A leaf without a host is accepted here; it fails later when connecting.
func Validate(roots []*Node) error {
	if len(roots) == 0 {
		return errors.New("no hosts defined")
	}
	for i, n := range roots {
		if err := validateNode(n, fmt.Sprintf("[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(n *Node, path string) error {
	if n == nil {
		return fmt.Errorf("%s: empty entry", path)
	}
	if n.Port < 0 || n.Port > 65535 {
		return fmt.Errorf("%s.port: %d out of range", path, n.Port)
	}
	for j, cb := range n.CallbackShells {
		if strings.TrimSpace(cb.Command) == "" {
			return fmt.Errorf("%s.callback-shells[%d]: cmd is required", path, j)
		}
		if cb.Delay < 0 {
			return fmt.Errorf("%s.callback-shells[%d].delay: must be >= 0", path, j)
		}
	}
	if n.Via != nil {
		if err := validateNode(n.Via, path+".via"); err != nil {
			return err
		}
	}
	for j, c := range n.Children {
		if err := validateNode(c, fmt.Sprintf("%s.children[%d]", path, j)); err != nil {
			return err
		}
	}
	return nil
}

// Resolve fills inherited fields across the catalog in a single pre-order
// pass. Each node copies unset fields from its already-resolved parent, then
// falls back to the global defaults (OS user, port 22, name = host).
//
// Gateways referenced through via are resolved as independent roots: they
// never inherit from the node that points at them.
func Resolve(roots []*Node) {
	r := resolver{
		osUser: currentUsername(),
		seen:   make(map[*Node]struct{}),
	}
	for _, n := range roots {
		r.resolve(n, nil)
	}
}

type resolver struct {
	osUser string
	seen   map[*Node]struct{}
}

func (r *resolver) resolve(n, parent *Node) {
	if n == nil {
		return
	}
	if _, done := r.seen[n]; done {
		return
	}
	r.seen[n] = struct{}{}

	if parent != nil {
		if n.User == "" {
			n.User = parent.User
		}
		if n.Host == "" {
			n.Host = parent.Host
		}
		if n.Port == 0 {
			n.Port = parent.Port
		}
		if n.KeyPath == "" {
			n.KeyPath = parent.KeyPath
		}
		if n.Password == nil {
			n.Password = parent.Password
		}
		if len(n.CallbackShells) == 0 {
			n.CallbackShells = parent.CallbackShells
		}
		if n.Via == nil {
			n.Via = parent.Via
		}
	}

	if n.User == "" {
		n.User = r.osUser
	}
	if n.Port == 0 {
		n.Port = DefaultPort
	}
	if n.Name == "" {
		n.Name = n.Host
	}

	// The gateway chain is resolved on its own; seen keeps a shared via
	// from being visited again by every descendant that inherits it.
	r.resolve(n.Via, nil)

	for _, c := range n.Children {
		r.resolve(c, n)
	}
}

// currentUsername returns the current OS user name, or the USER env if lookup fails.
// Returns empty string if neither are available.
func currentUsername() string {
	if u, err := user.Current(); err == nil && u != nil && u.Username != "" {
		// Windows reports DOMAIN\user.
		return filepath.Base(strings.ReplaceAll(u.Username, `\`, "/"))
	}
	return os.Getenv("USER")
}

// ExpandPath expands leading "~" and environment variables in a path.
func ExpandPath(p string) string { return expandPath(p) }

// expandPath expands leading "~" and environment variables in a path.
// If the input is empty, returns "".
func expandPath(p string) string {
	if p == "" {
		return ""
	}
	p = os.ExpandEnv(p)
	if strings.HasPrefix(p, "~") {
		home, _ := os.UserHomeDir()
		if home != "" {
			if p == "~" {
				p = home
			} else if strings.HasPrefix(p, "~/") {
				p = filepath.Join(home, p[2:])
			}
			// Note: "~user" not handled to avoid userdb lookups.
		}
	}
	return p
}
