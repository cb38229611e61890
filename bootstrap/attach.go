package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/k2io/bootstrapper/exitguard"
	"github.com/k2io/bootstrapper/hostfxr"
	"github.com/k2io/bootstrapper/internal/logging"
	"github.com/k2io/bootstrapper/internal/moduledir"
	"github.com/k2io/bootstrapper/internal/platform"
	"github.com/k2io/bootstrapper/internal/procargs"
)

// Attachment is what Attach set up in the process.
type Attachment struct {
	Settings     *Settings
	Guard        *exitguard.Guard
	Orchestrator *Orchestrator
	// receives the outcome of the worker
	Done <-chan Outcome
}

// Attach runs when the component is loaded into the host process: it settles
// the feature flags, starts logging, installs the exit guard and hands the
// wait-and-load to a worker thread. It does not block on the hosting library.
//
// On Linux the library constructor calls it on the loading thread, so the
// guard is in place before the host's main runs. On Windows it cannot be
// called from DllMain, the loader lock would deadlock the runtime; it runs
// from package initialization instead and the host may end before the guard
// is installed.
func Attach() (*Attachment, error) {
	settings, err := DefaultSettings()
	if err != nil {
		return nil, err
	}

	args, argsErr := procargs.List()
	settings.ApplyProcessFlags(args)

	dir := moduledir.Dir()
	if _, err := logging.Initialize(logging.Config{
		Enabled:  settings.LoggingEnabled,
		Dir:      dir,
		FileName: settings.LogFileName,
		Level:    settings.LogLevel,
	}); err != nil {
		return nil, fmt.Errorf("could not initialize logging: %w", err)
	}

	native := platform.Native()

	guard := exitguard.New(native, settings.ExitHooksEnabled)
	guard.Install()

	if argsErr != nil {
		slog.Warn("Could not read the command line", "error", argsErr)
	}
	slog.Info("Command line", "count", len(args))
	for i, arg := range args {
		slog.Info("Argument", "index", i, "value", arg)
	}

	loader := hostfxr.NewNativeLoader(settings.HostingLibrary)
	orchestrator := NewOrchestrator(settings, native, loader, dir)

	return &Attachment{
		Settings:     settings,
		Guard:        guard,
		Orchestrator: orchestrator,
		Done:         orchestrator.Start(context.Background()),
	}, nil
}
