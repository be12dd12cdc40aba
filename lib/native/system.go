package native

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
)

// System loads libraries through the platform dynamic loader. Each library
// is looked up in the configured search paths first, then by file name alone
// so the platform search order applies.
//
// Handles are kept for the life of the process; libraries are never closed.
type System struct {
	searchPaths []string
	open        OpenFunc

	mu      sync.Mutex
	handles map[string]uintptr
}

// NewSystem creates a System loader with optional search paths.
func NewSystem(searchPaths ...string) *System {
	paths := make([]string, len(searchPaths))
	copy(paths, searchPaths)
	return &System{
		searchPaths: paths,
		open:        Open,
		handles:     make(map[string]uintptr),
	}
}

// Load opens the library identified by name.
func (s *System) Load(name string) error {
	file := LibraryFileName(name)

	candidates := make([]string, 0, len(s.searchPaths)+1)
	if !filepath.IsAbs(file) {
		for _, dir := range s.searchPaths {
			candidates = append(candidates, filepath.Join(dir, file))
		}
	}
	candidates = append(candidates, file)

	var errs []error
	for _, path := range candidates {
		handle, err := s.open(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		s.mu.Lock()
		s.handles[name] = handle
		s.mu.Unlock()
		return nil
	}

	return fmt.Errorf("%w: %s: %w", ErrNotFound, name, errors.Join(errs...))
}

// Handle returns the handle of a library loaded by s.
func (s *System) Handle(name string) (uintptr, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[name]
	return h, ok
}
