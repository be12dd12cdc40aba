// Package commandline holds the process command line handed to native
// initialization. Once the native side is initialized, switch lookups are
// answered by the native command line and the Go-side copy is frozen.
package commandline

import (
	"errors"
	"strings"
	"sync"
)

// ErrProxied is returned when the Go-side command line is modified after the
// native proxy was enabled.
var ErrProxied = errors.New("commandline: native proxy enabled, command line is read-only")

// NativeSource answers switch lookups from the native command line.
type NativeSource interface {
	HasSwitch(name string) bool
	SwitchValue(name string) string
}

// CommandLine is safe for concurrent use.
type CommandLine struct {
	mu       sync.RWMutex
	program  string
	args     []string
	switches map[string]string
	native   NativeSource
	proxied  bool
}

// New parses argv. argv[0] is the program name.
func New(argv []string, native NativeSource) *CommandLine {
	c := &CommandLine{
		switches: make(map[string]string),
		native:   native,
	}
	if len(argv) > 0 {
		c.program = argv[0]
		for _, a := range argv[1:] {
			c.appendLocked(a)
		}
	}
	return c
}

func (c *CommandLine) appendLocked(arg string) {
	c.args = append(c.args, arg)
	name, value, ok := parseSwitch(arg)
	if ok {
		c.switches[name] = value
	}
}

// parseSwitch accepts "--name", "--name=value" and "-name".
func parseSwitch(arg string) (name, value string, ok bool) {
	if arg == "--" || arg == "-" || !strings.HasPrefix(arg, "-") {
		return "", "", false
	}
	trimmed := strings.TrimLeft(arg, "-")
	name, value, _ = strings.Cut(trimmed, "=")
	if name == "" {
		return "", "", false
	}
	return name, value, true
}

// AppendSwitch adds "--name" or "--name=value".
func (c *CommandLine) AppendSwitch(name, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.proxied {
		return ErrProxied
	}
	arg := "--" + name
	if value != "" {
		arg += "=" + value
	}
	c.appendLocked(arg)
	return nil
}

// Argv returns the program name followed by the arguments, the form passed
// to native initialization.
func (c *CommandLine) Argv() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	argv := make([]string, 0, len(c.args)+1)
	argv = append(argv, c.program)
	return append(argv, c.args...)
}

// HasSwitch reports whether the switch is present.
func (c *CommandLine) HasSwitch(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.proxied && c.native != nil {
		return c.native.HasSwitch(name)
	}
	_, ok := c.switches[name]
	return ok
}

// SwitchValue returns the value of the switch, or "".
func (c *CommandLine) SwitchValue(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.proxied && c.native != nil {
		return c.native.SwitchValue(name)
	}
	return c.switches[name]
}

// EnableNativeProxy hands switch lookups to the native command line.
func (c *CommandLine) EnableNativeProxy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.proxied = true
}

// IsNativeProxy reports whether EnableNativeProxy was called.
func (c *CommandLine) IsNativeProxy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.proxied
}
