// Package loader coordinates loading a set of native libraries and running
// their one-time initialization hook exactly once per process.
// This file contains the lock-guarded stage that every operation reads and
// advances.
package loader

import (
	"fmt"
	"sync"
)

// Stage is the load/init progress of the library set. It only moves forward.
type Stage int

const (
	// StageNotLoaded means no load attempt has completed successfully.
	StageNotLoaded Stage = iota
	// StageLoaded means every library is resident and the version matched.
	StageLoaded
	// StageInitialized means the native initialization hook returned success.
	StageInitialized
)

func (s Stage) String() string {
	switch s {
	case StageNotLoaded:
		return "not_loaded"
	case StageLoaded:
		return "loaded"
	case StageInitialized:
		return "initialized"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Loaded reports whether the libraries are resident.
func (s Stage) Loaded() bool {
	return s >= StageLoaded
}

// Initialized reports whether the native side is ready to use.
func (s Stage) Initialized() bool {
	return s == StageInitialized
}

// state is the single mutable entity of a Loader.
//
// stage must only be read or written from inside withExclusiveAccess. The
// mutex is not reentrant: code running inside the scope must not call back
// into a public Loader method.
type state struct {
	mu    sync.Mutex
	stage Stage
}

// withExclusiveAccess runs fn while holding the state lock. The lock is
// released on every exit path, panics included.
func (s *state) withExclusiveAccess(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// advance moves the stage exactly one step forward. Anything else is a bug.
func (s *state) advance(to Stage) {
	if to != s.stage+1 {
		panic(fmt.Sprintf("loader: invalid stage transition %s -> %s", s.stage, to))
	}
	s.stage = to
}
