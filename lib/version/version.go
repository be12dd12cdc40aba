// Package version compares the build identifier a program expects against
// the one reported by the native side after its libraries are loaded.
package version

import (
	"errors"
	"fmt"
)

// ErrMismatch is matched by every *MismatchError.
var ErrMismatch = errors.New("native library version mismatch")

// MismatchError reports the expected and actual version strings.
type MismatchError struct {
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("native library version mismatch: expected %q, got %q", e.Expected, e.Actual)
}

// Is reports whether target is ErrMismatch.
func (e *MismatchError) Is(target error) bool {
	return target == ErrMismatch
}

// Check returns nil when actual is exactly equal to expected.
func Check(expected, actual string) error {
	if expected != actual {
		return &MismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
