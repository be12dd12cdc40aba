package native

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/snowmerak/libload/lib/resultcode"
)

// Hook symbol names, without the configured prefix.
const (
	SymbolGetVersionNumber = "get_version_number"
	SymbolLibraryLoaded    = "library_loaded"
	SymbolTraceEnabled     = "trace_enabled"
	SymbolHasSwitch        = "has_switch"
	SymbolSwitchValue      = "switch_value"
)

// Bridge calls the startup hooks exported by one library of the set.
//
// Required exports:
//
//	const char* <prefix>get_version_number(void);
//	int32_t     <prefix>library_loaded(const char* argv, size_t size, int32_t argc);
//
// argv holds argc NUL-terminated strings stored back to back.
//
// Optional exports:
//
//	bool        <prefix>trace_enabled(void);
//	bool        <prefix>has_switch(const char* name);
//	const char* <prefix>switch_value(const char* name);
//
// Symbols are bound on first use, after the library has been loaded. A
// failed bind is retried on the next call.
type Bridge struct {
	library string
	prefix  string
	sources []HandleSource
	log     *slog.Logger

	lookup   func(handle uintptr, name string) (uintptr, error)
	register func(fptr any, sym uintptr)

	mu               sync.Mutex
	bound            bool
	getVersionNumber func() string
	libraryLoaded    func(argv *byte, size uintptr, argc int32) int32
	traceEnabled     func() bool
	hasSwitch        func(name string) bool
	switchValue      func(name string) string
}

// NewBridge creates a Bridge for the hooks exported by library. The handle is
// taken from the first source that has it.
func NewBridge(library, prefix string, log *slog.Logger, sources ...HandleSource) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	return &Bridge{
		library:  library,
		prefix:   prefix,
		sources:  sources,
		log:      log,
		lookup:   lookupSymbol,
		register: registerFunc,
	}
}

func (b *Bridge) bindLocked() error {
	if b.bound {
		return nil
	}

	var handle uintptr
	found := false
	for _, src := range b.sources {
		if h, ok := src.Handle(b.library); ok {
			handle, found = h, true
			break
		}
	}
	if !found {
		return fmt.Errorf("bridge library %q is not loaded", b.library)
	}

	required := []struct {
		name string
		fptr any
	}{
		{SymbolGetVersionNumber, &b.getVersionNumber},
		{SymbolLibraryLoaded, &b.libraryLoaded},
	}
	for _, r := range required {
		sym, err := b.lookup(handle, b.prefix+r.name)
		if err != nil {
			return err
		}
		b.register(r.fptr, sym)
	}

	optional := []struct {
		name string
		fptr any
	}{
		{SymbolTraceEnabled, &b.traceEnabled},
		{SymbolHasSwitch, &b.hasSwitch},
		{SymbolSwitchValue, &b.switchValue},
	}
	for _, o := range optional {
		sym, err := b.lookup(handle, b.prefix+o.name)
		if err != nil {
			b.log.Debug("optional native hook not exported", slog.String("symbol", b.prefix+o.name))
			continue
		}
		b.register(o.fptr, sym)
	}

	b.bound = true
	return nil
}

// VersionNumber returns the version compiled into the native side, or "" if
// the hooks cannot be bound.
func (b *Bridge) VersionNumber() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.bindLocked(); err != nil {
		b.log.Error("failed to bind native hooks", slog.String("library", b.library), slog.Any("error", err))
		return ""
	}
	return b.getVersionNumber()
}

// LibraryLoaded runs the native initialization hook with args.
func (b *Bridge) LibraryLoaded(args []string) resultcode.Code {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.bindLocked(); err != nil {
		b.log.Error("failed to bind native hooks", slog.String("library", b.library), slog.Any("error", err))
		return resultcode.NativeStartupFailed
	}

	buf, err := EncodeArgs(args)
	if err != nil {
		b.log.Error("invalid command line for native initialization", slog.Any("error", err))
		return resultcode.NativeStartupFailed
	}

	var ptr *byte
	if len(buf) > 0 {
		ptr = &buf[0]
	}
	code := b.libraryLoaded(ptr, uintptr(len(buf)), int32(len(args)))
	runtime.KeepAlive(buf)
	return resultcode.Code(code)
}

// TraceEnabled reports the native trace state. It is false when the hook is
// not exported.
func (b *Bridge) TraceEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.bindLocked(); err != nil || b.traceEnabled == nil {
		return false
	}
	return b.traceEnabled()
}

// HasSwitch reports whether the native command line has the switch.
func (b *Bridge) HasSwitch(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.bindLocked(); err != nil || b.hasSwitch == nil {
		return false
	}
	return b.hasSwitch(name)
}

// SwitchValue returns the value of a native command line switch.
func (b *Bridge) SwitchValue(name string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.bindLocked(); err != nil || b.switchValue == nil {
		return ""
	}
	return b.switchValue(name)
}

// EncodeArgs lays args out as consecutive NUL-terminated strings.
func EncodeArgs(args []string) ([]byte, error) {
	size := 0
	for i, a := range args {
		if strings.IndexByte(a, 0) >= 0 {
			return nil, fmt.Errorf("argument %d contains a NUL byte", i)
		}
		size += len(a) + 1
	}

	buf := make([]byte, 0, size)
	for _, a := range args {
		buf = append(buf, a...)
		buf = append(buf, 0)
	}
	return buf, nil
}
