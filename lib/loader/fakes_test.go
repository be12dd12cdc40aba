package loader

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/snowmerak/libload/lib/resultcode"
)

var errTransient = errors.New("transient dlopen failure")

// recorder keeps an ordered log of collaborator calls.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

// fakeNative is both the NativeLoader and the Native hooks.
type fakeNative struct {
	rec *recorder

	mu       sync.Mutex
	failOn   map[string]error
	version  string
	code     resultcode.Code
	initArgs [][]string

	loadCalls atomic.Int64
	initCalls atomic.Int64
}

func newFakeNative(rec *recorder, version string) *fakeNative {
	return &fakeNative{rec: rec, version: version, failOn: map[string]error{}}
}

func (f *fakeNative) Load(name string) error {
	f.loadCalls.Add(1)
	f.rec.add("native.load " + name)

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failOn[name]
}

func (f *fakeNative) VersionNumber() string {
	f.rec.add("native.version")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.version
}

func (f *fakeNative) LibraryLoaded(args []string) resultcode.Code {
	f.initCalls.Add(1)
	f.rec.add("native.init")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.initArgs = append(f.initArgs, args)
	return f.code
}

func (f *fakeNative) setFailure(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failOn, name)
		return
	}
	f.failOn[name] = err
}

func (f *fakeNative) setCode(code resultcode.Code) {
	f.mu.Lock()
	f.code = code
	f.mu.Unlock()
}

func (f *fakeNative) setVersion(v string) {
	f.mu.Lock()
	f.version = v
	f.mu.Unlock()
}

type fakeLinker struct {
	rec         *recorder
	selected    bool
	fixedFailed bool
	failPhase   string
}

func (l *fakeLinker) IsSelected() bool { return l.selected }

func (l *fakeLinker) Prepare() error {
	l.rec.add("linker.prepare")
	if l.failPhase == PhasePrepare {
		return errTransient
	}
	return nil
}

func (l *fakeLinker) Load(name string) error {
	l.rec.add("linker.load " + name)
	if l.failPhase == PhaseLoad {
		return errTransient
	}
	return nil
}

func (l *fakeLinker) Finish() error {
	l.rec.add("linker.finish")
	if l.failPhase == PhaseFinish {
		return errTransient
	}
	return nil
}

func (l *fakeLinker) LoadAtFixedAddressFailed() bool { return l.fixedFailed }

type fakeCommandLine struct{ rec *recorder }

func (c fakeCommandLine) EnableNativeProxy() { c.rec.add("commandline.proxy") }

type fakeTrace struct{ rec *recorder }

func (t fakeTrace) SetEnabledToMatchNative() { t.rec.add("trace.sync") }

type linkerSample struct {
	fixedAddressFailed bool
	lowEndDevice       bool
}

type fakeMetrics struct {
	mu      sync.Mutex
	samples []linkerSample
	loads   int
	inits   int
}

func (m *fakeMetrics) RecordLinkerHistogram(fixedAddressFailed, lowEndDevice bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, linkerSample{fixedAddressFailed, lowEndDevice})
}

func (m *fakeMetrics) ObserveLoadDuration(time.Duration) {
	m.mu.Lock()
	m.loads++
	m.mu.Unlock()
}

func (m *fakeMetrics) ObserveInitDuration(time.Duration) {
	m.mu.Lock()
	m.inits++
	m.mu.Unlock()
}

type fakeDevice bool

func (d fakeDevice) IsLowEndDevice() bool { return bool(d) }

// spanProvider records every span started through it.
type spanProvider struct {
	noop.TracerProvider

	mu    sync.Mutex
	spans []*recordedSpan
}

func (p *spanProvider) Tracer(string, ...trace.TracerOption) trace.Tracer {
	return spanTracer{p: p}
}

func (p *spanProvider) started() []*recordedSpan {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*recordedSpan(nil), p.spans...)
}

func (p *spanProvider) names() []string {
	var out []string
	for _, s := range p.started() {
		out = append(out, s.name)
	}
	return out
}

type spanTracer struct {
	noop.Tracer
	p *spanProvider
}

func (t spanTracer) Start(ctx context.Context, name string, _ ...trace.SpanStartOption) (context.Context, trace.Span) {
	s := &recordedSpan{name: name}
	t.p.mu.Lock()
	t.p.spans = append(t.p.spans, s)
	t.p.mu.Unlock()
	return trace.ContextWithSpan(ctx, s), s
}

type recordedSpan struct {
	noop.Span

	name   string
	status codes.Code
	errs   []error
	ended  bool
}

func (s *recordedSpan) SetStatus(code codes.Code, _ string) { s.status = code }
func (s *recordedSpan) RecordError(err error, _ ...trace.EventOption) { s.errs = append(s.errs, err) }
func (s *recordedSpan) End(...trace.SpanEndOption) { s.ended = true }
