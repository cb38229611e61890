package exitguard

import (
	"log/slog"
	"syscall"

	"github.com/k2io/bootstrapper/internal/platform"
	"golang.org/x/sys/windows"
)

const (
	exitProcess      = "ExitProcess"
	terminateProcess = "TerminateProcess"
)

func (g *Guard) defaultPrimitives() []primitive {
	return []primitive{
		{image: "kernel32.dll", name: exitProcess, detour: func() uintptr {
			return platform.NewCallback(g.block(exitProcess))
		}},
		{image: "kernel32.dll", name: terminateProcess, detour: func() uintptr {
			return platform.NewCallback(g.terminateProcess)
		}},
	}
}

// terminateProcess blocks when the process terminates itself and forwards to
// the real TerminateProcess for any other process.
func (g *Guard) terminateProcess(process, exitCode uintptr) uintptr {
	h := windows.Handle(process)
	if isCurrentProcess(h) {
		return g.block(terminateProcess)(exitCode)
	}

	slog.Debug("Forwarding TerminateProcess of foreign process", "handle", process, "exitCode", uint32(exitCode))
	var lastError syscall.Errno
	result, err := g.passThrough(terminateProcess, func(target uintptr) uintptr {
		var r uintptr
		r, lastError = platform.CallLastError(target, process, exitCode)
		return r
	})
	if err != nil {
		slog.Error("Failed to forward TerminateProcess", "error", err)
		return 0
	}
	// the caller reads GetLastError of the real call, not of the rehook
	platform.SetLastError(lastError)
	return result
}

func isCurrentProcess(h windows.Handle) bool {
	if h == windows.CurrentProcess() {
		return true
	}
	pid, err := windows.GetProcessId(h)
	return err == nil && pid == windows.GetCurrentProcessId()
}
