// Package native opens shared libraries and binds the startup hooks they
// export, without cgo.
package native

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"
)

var (
	// ErrUnsupported is returned on platforms without a dynamic loader.
	ErrUnsupported = errors.New("dynamic library loading is not supported on " + runtime.GOOS)
	// ErrNotFound is returned when a library cannot be opened from any location.
	ErrNotFound = errors.New("native library not found")
	// ErrSymbolNotFound is returned when a required hook is not exported.
	ErrSymbolNotFound = errors.New("native symbol not found")
)

// OpenFunc opens the shared library at path and returns its handle.
type OpenFunc func(path string) (uintptr, error)

// HandleSource exposes the handles of libraries already opened.
type HandleSource interface {
	Handle(name string) (uintptr, bool)
}

// LibraryFileName maps a library identifier to the file the platform loader
// expects, e.g. "base" to "libbase.so". Identifiers that already contain a
// directory or a shared library extension are returned unchanged.
func LibraryFileName(name string) string {
	if strings.ContainsRune(name, filepath.Separator) || hasLibraryExt(name) {
		return name
	}
	return "lib" + name + libraryExt()
}

func libraryExt() string {
	if runtime.GOOS == "darwin" {
		return ".dylib"
	}
	return ".so"
}

func hasLibraryExt(name string) bool {
	return strings.HasSuffix(name, ".so") || strings.Contains(name, ".so.") || strings.HasSuffix(name, ".dylib")
}
