// Package manifest describes the ordered set of native libraries a process
// loads and the version it expects them to report.
package manifest

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmpty is returned when a manifest lists no libraries.
	ErrEmpty = errors.New("manifest lists no libraries")
	// ErrInvalidLibrary is returned for empty or duplicate library identifiers.
	ErrInvalidLibrary = errors.New("invalid library identifier")
	// ErrMissingVersion is returned when the expected version is empty.
	ErrMissingVersion = errors.New("manifest has no expected version")
)

// Manifest is an ordered list of library identifiers plus the version the
// native side must report once they are loaded. Order is dependency order.
// A Manifest is immutable once built.
type Manifest struct {
	version   string
	libraries []string
}

// New builds a manifest. The libraries slice is copied.
func New(version string, libraries ...string) Manifest {
	libs := make([]string, len(libraries))
	copy(libs, libraries)
	return Manifest{version: version, libraries: libs}
}

// Version returns the expected native version string.
func (m Manifest) Version() string {
	return m.version
}

// Libraries returns a copy of the library identifiers in load order.
func (m Manifest) Libraries() []string {
	libs := make([]string, len(m.libraries))
	copy(libs, m.libraries)
	return libs
}

// Len returns the number of libraries.
func (m Manifest) Len() int {
	return len(m.libraries)
}

// Validate checks that the manifest can be loaded.
func (m Manifest) Validate() error {
	if len(m.libraries) == 0 {
		return ErrEmpty
	}
	if strings.TrimSpace(m.version) == "" {
		return ErrMissingVersion
	}

	seen := make(map[string]int, len(m.libraries))
	for i, lib := range m.libraries {
		if strings.TrimSpace(lib) == "" {
			return fmt.Errorf("%w: empty identifier at index %d", ErrInvalidLibrary, i)
		}
		if prev, ok := seen[lib]; ok {
			return fmt.Errorf("%w: %q listed at index %d and %d", ErrInvalidLibrary, lib, prev, i)
		}
		seen[lib] = i
	}
	return nil
}

func (m Manifest) String() string {
	return fmt.Sprintf("%s@%s", strings.Join(m.libraries, ","), m.version)
}
