package loader

import (
	"fmt"
	"sync/atomic"
)

var processLoader atomic.Pointer[Loader]

// Install makes l the process-wide Loader. It succeeds once; there is no
// way to remove or replace the installed Loader.
func Install(l *Loader) error {
	if l == nil {
		return fmt.Errorf("loader: cannot install a nil Loader")
	}
	if !processLoader.CompareAndSwap(nil, l) {
		return ErrAlreadyInstalled
	}
	return nil
}

// Default returns the process-wide Loader, or nil if none was installed.
func Default() *Loader {
	return processLoader.Load()
}
