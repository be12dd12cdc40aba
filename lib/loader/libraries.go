package loader

import (
	"log/slog"

	"github.com/snowmerak/libload/lib/manifest"
	"github.com/snowmerak/libload/lib/version"
)

// loadAll loads every library of m in order and then checks the version the
// native side reports. It keeps no state; the caller must hold the state lock
// and must only call it while the stage is StageNotLoaded.
//
// A nil or unselected linker means each library goes through nl.
func loadAll(m manifest.Manifest, linker Linker, nl NativeLoader, query VersionQuery, log *slog.Logger) error {
	libraries := m.Libraries()

	if linker != nil && linker.IsSelected() {
		if err := linker.Prepare(); err != nil {
			return &LoadError{Phase: PhasePrepare, Err: err}
		}
		for _, lib := range libraries {
			log.Info("loading native library", slog.String("library", lib), slog.Bool("linker", true))
			if err := linker.Load(lib); err != nil {
				return &LoadError{Phase: PhaseLoad, Library: lib, Err: err}
			}
		}
		if err := linker.Finish(); err != nil {
			return &LoadError{Phase: PhaseFinish, Err: err}
		}
	} else {
		for _, lib := range libraries {
			log.Info("loading native library", slog.String("library", lib))
			if err := nl.Load(lib); err != nil {
				return &LoadError{Phase: PhaseLoad, Library: lib, Err: err}
			}
		}
	}

	actual := query.VersionNumber()
	log.Info("checking native library version",
		slog.String("expected", m.Version()),
		slog.String("actual", actual),
	)
	return version.Check(m.Version(), actual)
}
