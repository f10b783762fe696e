// Package system abstracts process execution so commands that spawn
// workloads can be tested without running them.
package system

import (
	"context"
	"io"
	"os"
	"strings"
)

// Command describes one child process.
type Command struct {
	Name string
	Args []string

	// Env is appended to the parent environment.
	Env []string

	// Stdin, Stdout and Stderr default to the parent's streams when nil.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Signals received while the command runs are forwarded to it.
	Signals <-chan os.Signal
}

// Lookup returns the value of key among the variables added by the caller.
// Later entries win.
func (c Command) Lookup(key string) (string, bool) {
	for i := len(c.Env) - 1; i >= 0; i-- {
		if k, v, ok := strings.Cut(c.Env[i], "="); ok && k == key {
			return v, true
		}
	}
	return "", false
}

// CommandExecutor runs child processes.
type CommandExecutor interface {
	// Run starts the command and waits for it to exit. A non-zero exit is
	// reported as an error for which ExitStatus returns the code.
	Run(ctx context.Context, cmd Command) error
}

var defaultExecutor CommandExecutor = &osExecutor{}

// DefaultExecutor returns the default CommandExecutor implementation.
func DefaultExecutor() CommandExecutor {
	return defaultExecutor
}

// SetDefaultExecutor sets the default CommandExecutor (useful for testing).
func SetDefaultExecutor(exec CommandExecutor) {
	defaultExecutor = exec
}

// ResetDefaults restores the default OS implementation.
func ResetDefaults() {
	defaultExecutor = &osExecutor{}
}
