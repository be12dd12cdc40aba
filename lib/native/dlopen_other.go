//go:build !darwin && !freebsd && !linux

package native

// Open always fails on this platform.
func Open(path string) (uintptr, error) {
	return 0, ErrUnsupported
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return 0, ErrUnsupported
}

func registerFunc(fptr any, sym uintptr) {}
