package loader

import (
	"errors"
	"fmt"

	"github.com/snowmerak/libload/lib/resultcode"
	"github.com/snowmerak/libload/lib/version"
)

var (
	// ErrLoad is matched by every *LoadError.
	ErrLoad = errors.New("native library load failed")
	// ErrVersionMismatch is returned when the loaded native version differs
	// from the manifest. It never matches ErrLoad.
	ErrVersionMismatch = version.ErrMismatch
	// ErrInit is matched by every *InitError.
	ErrInit = errors.New("native initialization failed")
	// ErrNotLoaded is the panic value raised when InitializeOnly is called
	// before the libraries were loaded.
	ErrNotLoaded = errors.New("loader: initialize called before libraries were loaded")
	// ErrAlreadyInstalled is returned by Install when a process-wide loader
	// already exists.
	ErrAlreadyInstalled = errors.New("loader: process-wide loader already installed")
)

// Load phases recorded in LoadError.
const (
	PhasePrepare = "prepare"
	PhaseLoad    = "load"
	PhaseFinish  = "finish"
)

// LoadError wraps the cause of a failed library load.
type LoadError struct {
	// Phase is one of PhasePrepare, PhaseLoad or PhaseFinish.
	Phase string
	// Library is empty for the prepare and finish phases.
	Library string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Library == "" {
		return fmt.Sprintf("native library %s failed: %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("failed to load native library %q: %v", e.Library, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrLoad.
func (e *LoadError) Is(target error) bool {
	return target == ErrLoad
}

// InitError carries the nonzero result code returned by the native
// initialization hook.
type InitError struct {
	Code resultcode.Code
}

func (e *InitError) Error() string {
	return fmt.Sprintf("native initialization failed with result code %d", int(e.Code))
}

// Is reports whether target is ErrInit.
func (e *InitError) Is(target error) bool {
	return target == ErrInit
}

// ResultCodeOf maps an error returned by a Loader operation to the result
// code a process would exit with.
func ResultCodeOf(err error) resultcode.Code {
	if err == nil {
		return resultcode.OK
	}

	var initErr *InitError
	switch {
	case errors.As(err, &initErr):
		return initErr.Code
	case errors.Is(err, ErrVersionMismatch):
		return resultcode.NativeLibraryWrongVersion
	case errors.Is(err, ErrLoad):
		return resultcode.NativeLibraryLoadFailed
	default:
		return resultcode.NativeStartupFailed
	}
}
