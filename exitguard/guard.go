// Package exitguard keeps the host process alive by hooking its termination
// primitives: a thread asking to end its own process is parked forever
// instead.
package exitguard

import (
	"errors"
	"log/slog"

	"github.com/k2io/bootstrapper/hook"
	"github.com/k2io/bootstrapper/internal/platform"
)

type State int

const (
	Uninstalled State = iota
	Installed
)

func (s State) String() string {
	if s == Installed {
		return "installed"
	}
	return "uninstalled"
}

// primitive is a termination entry point and the detour replacing it.
type primitive struct {
	// module exporting the symbol, empty for the process image
	image string
	name  string
	// builds the C callable detour; only called once the symbol resolved
	detour func() uintptr
}

// Guard owns the hooks on the termination primitives. Install and Uninstall
// are meant to be called from a single thread.
type Guard struct {
	platform   platform.Platform
	engine     *hook.Engine
	enabled    bool
	state      State
	primitives []primitive
	records    map[string]*hook.Record
}

// New returns a guard for the termination primitives of the running OS. A
// guard created with enabled false never installs anything.
func New(p platform.Platform, enabled bool) *Guard {
	g := newGuard(p, enabled, nil)
	g.primitives = g.defaultPrimitives()
	return g
}

func newGuard(p platform.Platform, enabled bool, primitives []primitive) *Guard {
	return &Guard{
		platform:   p,
		engine:     hook.NewEngine(p),
		enabled:    enabled,
		primitives: primitives,
		records:    make(map[string]*hook.Record),
	}
}

func (g *Guard) State() State {
	return g.state
}

func (g *Guard) Enabled() bool {
	return g.enabled
}

// Install hooks every primitive it can resolve. A primitive that cannot be
// resolved or patched is logged and skipped, the others are still attempted.
func (g *Guard) Install() {
	if !g.enabled || g.state == Installed {
		return
	}
	for _, p := range g.primitives {
		target, err := g.resolve(p)
		if err != nil {
			slog.Error("Failed to find termination primitive", "primitive", p.name, "error", err)
			continue
		}
		record, err := g.engine.Install(target, p.detour())
		if err != nil {
			slog.Error("Failed to hook termination primitive", "primitive", p.name, "error", err)
			continue
		}
		g.records[p.name] = record
		slog.Info("Termination primitive hooked", "primitive", p.name)
	}
	g.state = Installed
}

// Uninstall restores every hooked primitive. Calling it again, or on a guard
// that never installed, does nothing.
func (g *Guard) Uninstall() {
	if g.state == Uninstalled {
		return
	}
	for name, record := range g.records {
		if err := g.engine.Restore(record); err != nil {
			slog.Error("Failed to unhook termination primitive", "primitive", name, "error", err)
		}
	}
	g.state = Uninstalled
	slog.Info("Exit hooks removed")
}

func (g *Guard) resolve(p primitive) (uintptr, error) {
	lib := platform.ProcessImage
	if p.image != "" {
		var err error
		if lib, err = g.platform.ResolveLibrary(p.image); err != nil {
			return 0, err
		}
	}
	return g.platform.ResolveSymbol(lib, p.name)
}

// block returns a detour that parks the calling thread for good.
func (g *Guard) block(name string) func(status uintptr) uintptr {
	return func(status uintptr) uintptr {
		slog.Warn("Termination intercepted, suspending caller thread", "primitive", name, "status", int32(status))
		g.platform.SuspendCurrentThread()
		return 0
	}
}

var errNotHooked = errors.New("primitive not hooked")

// passThrough runs the original primitive of a hooked record: the hook is
// removed, call runs with the restored address, and the hook is written
// again. Another thread reaching the primitive in between is not guarded.
func (g *Guard) passThrough(name string, call func(target uintptr) uintptr) (uintptr, error) {
	record := g.records[name]
	if record == nil || !record.Installed {
		return 0, errNotHooked
	}
	if err := g.engine.Restore(record); err != nil {
		return 0, err
	}
	result := call(record.Target)
	if err := g.engine.Reinstall(record); err != nil {
		slog.Error("Failed to rehook termination primitive", "primitive", name, "error", err)
	}
	return result, nil
}
