// Package tracing keeps Go-side tracing in step with the native side's
// trace enablement.
package tracing

import (
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName is the tracer name used for libload spans.
const InstrumentationName = "github.com/snowmerak/libload"

// NativeSource reports whether tracing is enabled on the native side.
type NativeSource interface {
	TraceEnabled() bool
}

// State hands out a real tracer only while tracing is enabled.
type State struct {
	native   NativeSource
	provider trace.TracerProvider
	enabled  atomic.Bool
	disabled trace.Tracer
}

// New creates a State. A nil provider means the global otel provider,
// resolved at the time Tracer is called.
func New(native NativeSource, provider trace.TracerProvider) *State {
	return &State{
		native:   native,
		provider: provider,
		disabled: noop.NewTracerProvider().Tracer(InstrumentationName),
	}
}

// SetEnabledToMatchNative copies the native trace state. Without a native
// source tracing is turned off.
func (s *State) SetEnabledToMatchNative() {
	enabled := s.native != nil && s.native.TraceEnabled()
	s.enabled.Store(enabled)
}

// SetEnabled overrides the trace state.
func (s *State) SetEnabled(enabled bool) {
	s.enabled.Store(enabled)
}

// Enabled reports the current trace state.
func (s *State) Enabled() bool {
	return s.enabled.Load()
}

// Tracer returns the libload tracer for work done after native
// initialization, or a no-op tracer while disabled.
func (s *State) Tracer() trace.Tracer {
	if !s.enabled.Load() {
		return s.disabled
	}
	provider := s.provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return provider.Tracer(InstrumentationName)
}
