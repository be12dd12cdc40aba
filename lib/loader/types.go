package loader

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/snowmerak/libload/lib/native"
	"github.com/snowmerak/libload/lib/resultcode"
)

// NativeLoader brings a single library into the process.
type NativeLoader interface {
	Load(name string) error
}

// Linker is an alternate loading strategy that replaces per-library
// NativeLoader calls with a prepare/load/finish protocol.
type Linker interface {
	// IsSelected reports whether the linker should be used for this process.
	IsSelected() bool
	Prepare() error
	Load(name string) error
	Finish() error
	// LoadAtFixedAddressFailed reports whether any library could not be
	// placed at its fixed location during the last load.
	LoadAtFixedAddressFailed() bool
}

// VersionQuery reports the version string compiled into the native side.
type VersionQuery interface {
	VersionNumber() string
}

// Native is the native half of the startup handshake.
type Native interface {
	VersionQuery
	// LibraryLoaded runs the one-time native initialization with the given
	// command line and returns resultcode.OK on success.
	LibraryLoaded(args []string) resultcode.Code
}

// CommandLine is switched over to the native command line once the native
// side is initialized.
type CommandLine interface {
	EnableNativeProxy()
}

// TraceState mirrors the native trace enablement once the native side is
// initialized.
type TraceState interface {
	SetEnabledToMatchNative()
}

// Metrics receives load and init measurements.
type Metrics interface {
	RecordLinkerHistogram(fixedAddressFailed, lowEndDevice bool)
	ObserveLoadDuration(d time.Duration)
	ObserveInitDuration(d time.Duration)
}

// Device reports device memory class.
type Device interface {
	IsLowEndDevice() bool
}

// Options wires the collaborators of a Loader. Nil fields fall back to
// DefaultOptions.
type Options struct {
	// NativeLoader loads libraries when no linker is selected.
	NativeLoader NativeLoader

	// Linker is optional. It is used only when Linker.IsSelected is true.
	Linker Linker

	// Native provides the version query and initialization hook. Required.
	Native Native

	CommandLine CommandLine
	Trace       TraceState

	// TracerProvider supplies the spans around load and initialize. It is
	// not gated by native trace enablement. Defaults to the global provider.
	TracerProvider trace.TracerProvider
	Metrics     Metrics
	Device      Device

	Logger *slog.Logger

	// Now is used to time load and init. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns options backed by the system dynamic loader and
// no-op side effects. Native must still be set by the caller.
func DefaultOptions() *Options {
	return &Options{
		NativeLoader:   native.NewSystem(),
		CommandLine:    nopCommandLine{},
		Trace:          nopTrace{},
		TracerProvider: otel.GetTracerProvider(),
		Metrics:        nopMetrics{},
		Device:         nopDevice{},
		Logger:         slog.Default(),
		Now:            time.Now,
	}
}

func (o *Options) withDefaults() *Options {
	d := DefaultOptions()
	if o == nil {
		return d
	}

	out := *o
	if out.NativeLoader == nil {
		out.NativeLoader = d.NativeLoader
	}
	if out.CommandLine == nil {
		out.CommandLine = d.CommandLine
	}
	if out.Trace == nil {
		out.Trace = d.Trace
	}
	if out.TracerProvider == nil {
		out.TracerProvider = d.TracerProvider
	}
	if out.Metrics == nil {
		out.Metrics = d.Metrics
	}
	if out.Device == nil {
		out.Device = d.Device
	}
	if out.Logger == nil {
		out.Logger = d.Logger
	}
	if out.Now == nil {
		out.Now = d.Now
	}
	return &out
}

type nopCommandLine struct{}

func (nopCommandLine) EnableNativeProxy() {}

type nopTrace struct{}

func (nopTrace) SetEnabledToMatchNative() {}

type nopMetrics struct{}

func (nopMetrics) RecordLinkerHistogram(bool, bool)  {}
func (nopMetrics) ObserveLoadDuration(time.Duration) {}
func (nopMetrics) ObserveInitDuration(time.Duration) {}

type nopDevice struct{}

func (nopDevice) IsLowEndDevice() bool { return false }
