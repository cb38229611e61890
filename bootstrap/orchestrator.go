// Package bootstrap waits for the .NET hosting library to appear in the
// process and then loads the managed entry point exactly once.
package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	"github.com/k2io/bootstrapper/hostfxr"
)

// Environment variables overriding the build-time load parameters. All four
// must be set for the override to apply.
const (
	EnvRuntimeConfigPath = "RUNTIME_CONFIG_PATH"
	EnvAssemblyPath      = "ASSEMBLY_PATH"
	EnvTypeName          = "TYPE_NAME"
	EnvMethodName        = "METHOD_NAME"
)

// Loader runs one load attempt.
type Loader interface {
	Load(p hostfxr.Parameters) hostfxr.Result
	Library() string
}

type Source int

const (
	// SourceNone means the path was not configured and nothing ran
	SourceNone Source = iota
	SourceEnvironment
	SourceConstants
)

func (s Source) String() string {
	switch s {
	case SourceEnvironment:
		return "environment"
	case SourceConstants:
		return "constants"
	default:
		return "none"
	}
}

// Outcome reports what one run did.
type Outcome struct {
	Source     Source
	Parameters hostfxr.Parameters
	Poll       PollResult
	// Attempted is false when the hosting library never showed up
	Attempted bool
	Result    hostfxr.Result
}

type Orchestrator struct {
	settings  *Settings
	prober    Prober
	loader    Loader
	moduleDir string
	lookupEnv func(string) (string, bool)
}

type Option func(*Orchestrator)

// WithLookupEnv replaces os.LookupEnv.
func WithLookupEnv(lookup func(string) (string, bool)) Option {
	return func(o *Orchestrator) {
		o.lookupEnv = lookup
	}
}

func NewOrchestrator(settings *Settings, prober Prober, loader Loader, moduleDir string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		settings:  settings,
		prober:    prober,
		loader:    loader,
		moduleDir: moduleDir,
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start runs the orchestrator on a new goroutine locked to its own OS thread
// and returns at once. The environment path runs first; the build-time
// constants are used when the environment does not configure a load. The
// channel receives the outcome when the worker is done.
func (o *Orchestrator) Start(ctx context.Context) <-chan Outcome {
	done := make(chan Outcome, 1)
	go func() {
		// never unlocked: the thread exits with the worker
		runtime.LockOSThread()

		outcome := o.RunFromEnvironment(ctx)
		if outcome.Source == SourceNone {
			outcome = o.RunFromConstants(ctx)
		}
		done <- outcome
	}()
	return done
}

// RunFromEnvironment loads with the parameters from the environment. When any
// of the variables is missing or empty it does nothing and logs nothing.
func (o *Orchestrator) RunFromEnvironment(ctx context.Context) Outcome {
	p, ok := o.environmentParameters()
	if !ok {
		return Outcome{}
	}
	return o.run(ctx, SourceEnvironment, p)
}

// RunFromConstants loads with the build-time file names resolved against the
// module directory and the build-time type and method names.
func (o *Orchestrator) RunFromConstants(ctx context.Context) Outcome {
	p := hostfxr.Parameters{
		RuntimeConfigPath: filepath.Join(o.moduleDir, o.settings.RuntimeConfigFile),
		AssemblyPath:      filepath.Join(o.moduleDir, o.settings.AssemblyFile),
		TypeName:          o.settings.TypeName,
		MethodName:        o.settings.MethodName,
	}
	return o.run(ctx, SourceConstants, p)
}

func (o *Orchestrator) run(ctx context.Context, source Source, p hostfxr.Parameters) Outcome {
	outcome := Outcome{Source: source, Parameters: p}

	outcome.Poll = PollForHostingLibrary(ctx, o.prober, o.loader.Library(), o.settings.Timeout, o.settings.Interval)
	if !outcome.Poll.Found {
		return outcome
	}

	outcome.Attempted = true
	outcome.Result = o.loader.Load(p)
	slog.Info("bootstrapper_load_assembly finished", "source", source, "result", outcome.Result, "code", uint32(outcome.Result))
	return outcome
}

func (o *Orchestrator) environmentParameters() (hostfxr.Parameters, bool) {
	var p hostfxr.Parameters
	for _, v := range []struct {
		name string
		dst  *string
	}{
		{EnvRuntimeConfigPath, &p.RuntimeConfigPath},
		{EnvAssemblyPath, &p.AssemblyPath},
		{EnvTypeName, &p.TypeName},
		{EnvMethodName, &p.MethodName},
	} {
		value, ok := o.lookupEnv(v.name)
		if !ok || value == "" {
			return hostfxr.Parameters{}, false
		}
		*v.dst = value
	}
	return p, true
}
