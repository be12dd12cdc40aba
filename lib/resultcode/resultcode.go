// Package resultcode defines the process result codes reported when native
// library startup fails.
package resultcode

import "fmt"

// Code is a process-level result code. Zero means success.
type Code int

const (
	// OK is returned by the native initialization hook on success.
	OK Code = 0
	// NativeLibraryLoadFailed means a library of the set could not be loaded.
	NativeLibraryLoadFailed Code = 4
	// NativeStartupFailed means the native side could not be initialized.
	NativeStartupFailed Code = 5
	// NativeLibraryWrongVersion means the loaded native version did not match
	// the expected one.
	NativeLibraryWrongVersion Code = 6
)

func (c Code) String() string {
	switch c {
	case OK:
		return "ok"
	case NativeLibraryLoadFailed:
		return "native library load failed"
	case NativeStartupFailed:
		return "native startup failed"
	case NativeLibraryWrongVersion:
		return "native library wrong version"
	default:
		return fmt.Sprintf("result code %d", int(c))
	}
}
