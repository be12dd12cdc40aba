package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/snowmerak/libload/lib/commandline"
	"github.com/snowmerak/libload/lib/config"
	"github.com/snowmerak/libload/lib/device"
	"github.com/snowmerak/libload/lib/linker"
	"github.com/snowmerak/libload/lib/loader"
	"github.com/snowmerak/libload/lib/metrics"
	"github.com/snowmerak/libload/lib/native"
	"github.com/snowmerak/libload/lib/tracing"
)

// session is everything a command needs after wiring.
type session struct {
	loader      *loader.Loader
	commandLine *commandline.CommandLine
	registry    *prometheus.Registry
}

// wire builds the process Loader from cfg. argv is the command line handed
// to native initialization.
func wire(cfg *config.Config, argv []string, log *slog.Logger) (*session, error) {
	m, err := cfg.Manifest()
	if err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}

	system := native.NewSystem(cfg.SearchPaths...)
	lk := linker.New(cfg.LinkerConfig(), log)
	bridge := native.NewBridge(cfg.Bridge.Library, cfg.Bridge.SymbolPrefix, log, lk, system)
	cl := commandline.New(argv, bridge)

	reg := prometheus.NewRegistry()
	rec, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("registering metrics: %w", err)
	}

	l, err := loader.New(m, &loader.Options{
		NativeLoader: system,
		Linker:       lk,
		Native:       bridge,
		CommandLine:  cl,
		Trace:        tracing.New(bridge, nil),
		Metrics:      rec,
		Device:       device.NewMemory(),
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	return &session{loader: l, commandLine: cl, registry: reg}, nil
}
