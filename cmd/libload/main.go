// Command libload loads and initializes a native library set described by a
// configuration file, reporting the outcome as a process result code.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/snowmerak/libload/lib/loader"
)

func main() {
	// Only one command runs per process, so the wired Loader becomes the
	// process-wide one.
	cmd := newRootCommand(environment{getenv: os.Getenv, install: loader.Install})
	if err := cmd.Execute(); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// exitError carries a result code out of a command whose report has
// already been printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }
