// Package loader provides the public load and initialize operations.
// This file contains the Loader type and its lock-guarded operations.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/snowmerak/libload/lib/manifest"
	"github.com/snowmerak/libload/lib/resultcode"
	"github.com/snowmerak/libload/lib/tracing"
)

// Loader loads a manifest of native libraries and initializes the native
// side exactly once, no matter how many goroutines ask for it.
//
// All operations block while another goroutine holds the state lock, which
// includes the whole duration of a load or initialization. A failed stage
// leaves the Loader where it was, so the caller may retry.
type Loader struct {
	manifest manifest.Manifest
	opts     *Options
	log      *slog.Logger
	tracer   trace.Tracer

	state state

	// Guarded by state.mu.
	status Status
}

// Status is a snapshot of a Loader.
type Status struct {
	Stage Stage

	// LoadAttempts counts load phases started, successful or not.
	LoadAttempts int
	// LastAttemptID identifies the most recent load attempt in logs.
	LastAttemptID string

	LoadDuration time.Duration
	InitDuration time.Duration

	// LinkerUsed is true when the successful load went through the linker.
	LinkerUsed bool
	// FixedAddressFailed is meaningful only when LinkerUsed is true.
	FixedAddressFailed bool
}

// New creates a Loader for m. opts may be nil, but opts.Native is required.
func New(m manifest.Manifest, opts *Options) (*Loader, error) {
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	o := opts.withDefaults()
	if o.Native == nil {
		return nil, errors.New("loader: Options.Native is required")
	}

	return &Loader{
		manifest: m,
		opts:     o,
		log:      o.Logger.With(slog.String("component", "libload")),
		tracer:   o.TracerProvider.Tracer(tracing.InstrumentationName),
	}, nil
}

// Manifest returns the manifest the Loader was built with.
func (l *Loader) Manifest() manifest.Manifest {
	return l.manifest
}

// EnsureReady blocks until the libraries are loaded and initialized with
// args. It returns immediately once the Loader is initialized; args are
// ignored in that case.
func (l *Loader) EnsureReady(args []string) error {
	var err error
	l.state.withExclusiveAccess(func() {
		if l.state.stage.Initialized() {
			return
		}
		if err = l.loadAlreadyLocked(); err != nil {
			return
		}
		err = l.initializeAlreadyLocked(args)
	})
	return err
}

// LoadOnly loads the libraries without initializing them. It is a no-op
// once loaded. The goroutine that performs the load is the one on which the
// libraries' static initializers run.
func (l *Loader) LoadOnly() error {
	var err error
	l.state.withExclusiveAccess(func() {
		err = l.loadAlreadyLocked()
	})
	return err
}

// InitializeOnly runs the native initialization with args. The libraries
// must already be loaded by LoadOnly or EnsureReady, possibly on another
// goroutine; calling it earlier is a programming error and panics with
// ErrNotLoaded before any native call is made.
func (l *Loader) InitializeOnly(args []string) error {
	var err error
	l.state.withExclusiveAccess(func() {
		err = l.initializeAlreadyLocked(args)
	})
	return err
}

// IsInitialized reports whether the native side is ready to use. Once true
// it stays true.
func (l *Loader) IsInitialized() bool {
	var initialized bool
	l.state.withExclusiveAccess(func() {
		initialized = l.state.stage.Initialized()
	})
	return initialized
}

// Stage returns the current stage.
func (l *Loader) Stage() Stage {
	var stage Stage
	l.state.withExclusiveAccess(func() {
		stage = l.state.stage
	})
	return stage
}

// Status returns a snapshot of the Loader.
func (l *Loader) Status() Status {
	var st Status
	l.state.withExclusiveAccess(func() {
		st = l.status
		st.Stage = l.state.stage
	})
	return st
}

func (l *Loader) loadAlreadyLocked() error {
	if l.state.stage.Loaded() {
		return nil
	}

	attempt := newAttemptID()
	linkerUsed := l.opts.Linker != nil && l.opts.Linker.IsSelected()
	log := l.log.With(slog.String("attempt", attempt))

	l.status.LoadAttempts++
	l.status.LastAttemptID = attempt

	_, span := l.tracer.Start(context.Background(), "libload.Load",
		trace.WithAttributes(
			attribute.String("attempt", attempt),
			attribute.Int("libraries", l.manifest.Len()),
			attribute.Bool("linker", linkerUsed),
		),
	)
	defer span.End()

	start := l.opts.Now()
	err := loadAll(l.manifest, l.opts.Linker, l.opts.NativeLoader, l.opts.Native, log)
	elapsed := l.opts.Now().Sub(start)
	l.opts.Metrics.ObserveLoadDuration(elapsed)

	if err != nil {
		log.Error("failed to load native libraries", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	log.Info("loaded native libraries",
		slog.Int("count", l.manifest.Len()),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
	)

	l.status.LoadDuration = elapsed
	l.status.LinkerUsed = linkerUsed
	l.state.advance(StageLoaded)
	return nil
}

func (l *Loader) initializeAlreadyLocked(args []string) error {
	if l.state.stage.Initialized() {
		return nil
	}
	if !l.state.stage.Loaded() {
		panic(ErrNotLoaded)
	}

	_, span := l.tracer.Start(context.Background(), "libload.Initialize",
		trace.WithAttributes(attribute.Int("args", len(args))),
	)
	defer span.End()

	argv := make([]string, len(args))
	copy(argv, args)

	start := l.opts.Now()
	code := l.opts.Native.LibraryLoaded(argv)
	elapsed := l.opts.Now().Sub(start)
	l.opts.Metrics.ObserveInitDuration(elapsed)

	if code != resultcode.OK {
		err := &InitError{Code: code}
		l.log.Error("native initialization failed", slog.Int("code", int(code)), slog.String("reason", code.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	l.status.InitDuration = elapsed
	l.state.advance(StageInitialized)

	// Native code is usable from here on.
	l.opts.CommandLine.EnableNativeProxy()
	l.opts.Trace.SetEnabledToMatchNative()
	if l.status.LinkerUsed {
		failed := l.opts.Linker.LoadAtFixedAddressFailed()
		l.status.FixedAddressFailed = failed
		l.opts.Metrics.RecordLinkerHistogram(failed, l.opts.Device.IsLowEndDevice())
	}

	l.log.Info("native libraries initialized", slog.Int64("duration_ms", elapsed.Milliseconds()))
	return nil
}

func newAttemptID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
