// Package linker implements an alternate loading strategy that places every
// library of the set from one fixed directory, so all processes that share
// that directory map the same files. It follows a prepare/load/finish
// protocol and reports whether any library had to fall back to the platform
// search path.
package linker

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/snowmerak/libload/lib/native"
)

var (
	// ErrNotPrepared is returned by Load and Finish without a prior Prepare.
	ErrNotPrepared = errors.New("linker: library load not prepared")
	// ErrNoDirectory is returned by Prepare when the fixed directory is unusable.
	ErrNoDirectory = errors.New("linker: fixed library directory unavailable")
)

// Config selects and configures the linker.
type Config struct {
	// Enabled selects the linker for this process.
	Enabled bool
	// Dir is the fixed directory libraries are loaded from.
	Dir string
}

// Linker loads libraries from Config.Dir. It is safe for concurrent use,
// although the loader only drives it from one goroutine at a time.
type Linker struct {
	cfg  Config
	open native.OpenFunc
	stat func(string) (os.FileInfo, error)
	log  *slog.Logger

	mu                 sync.Mutex
	prepared           bool
	finished           bool
	fixedAddressFailed bool
	handles            map[string]uintptr
}

// New creates a Linker.
func New(cfg Config, log *slog.Logger) *Linker {
	if log == nil {
		log = slog.Default()
	}
	return &Linker{
		cfg:     cfg,
		open:    native.Open,
		stat:    os.Stat,
		log:     log.With(slog.String("component", "linker")),
		handles: make(map[string]uintptr),
	}
}

// IsSelected reports whether the linker is enabled.
func (l *Linker) IsSelected() bool {
	return l.cfg.Enabled
}

// Prepare starts a new load. It resets the outcome of any earlier failed
// attempt and checks that the fixed directory exists.
func (l *Linker) Prepare() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	info, err := l.stat(l.cfg.Dir)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoDirectory, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNoDirectory, l.cfg.Dir)
	}

	l.prepared = true
	l.finished = false
	l.fixedAddressFailed = false
	l.handles = make(map[string]uintptr)
	return nil
}

// Load opens name from the fixed directory, falling back to the platform
// search path if that fails.
func (l *Linker) Load(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.prepared || l.finished {
		return ErrNotPrepared
	}

	file := native.LibraryFileName(name)
	fixed := filepath.Join(l.cfg.Dir, filepath.Base(file))

	handle, err := l.open(fixed)
	if err != nil {
		l.log.Warn("fixed location load failed, falling back",
			slog.String("library", name),
			slog.String("path", fixed),
			slog.Any("error", err),
		)
		l.fixedAddressFailed = true

		handle, err = l.open(file)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", native.ErrNotFound, name, err)
		}
	}

	l.handles[name] = handle
	return nil
}

// Finish completes the load started by Prepare.
func (l *Linker) Finish() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.prepared || l.finished {
		return ErrNotPrepared
	}
	l.finished = true
	l.log.Info("linker load finished",
		slog.Int("libraries", len(l.handles)),
		slog.Bool("fixed_address_failed", l.fixedAddressFailed),
	)
	return nil
}

// LoadAtFixedAddressFailed reports whether any library of the last load
// could not be opened from the fixed directory.
func (l *Linker) LoadAtFixedAddressFailed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fixedAddressFailed
}

// Handle returns the handle of a library loaded by the linker.
func (l *Linker) Handle(name string) (uintptr, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.handles[name]
	return h, ok
}
