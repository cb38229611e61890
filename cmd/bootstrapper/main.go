// Command bootstrapper is built with -buildmode=c-shared and injected into a
// .NET host process. Loading it installs the exit guard and starts the worker
// that waits for hostfxr and loads the managed patch assembly.
package main

// #include <stdint.h>
import "C"

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"unsafe"

	"github.com/k2io/bootstrapper/bootstrap"
	"github.com/k2io/bootstrapper/hostfxr"
	"github.com/k2io/bootstrapper/internal/platform"
)

var (
	attachOnce sync.Once
	attachment *bootstrap.Attachment
)

func attach() {
	attachOnce.Do(func() {
		var err error
		if attachment, err = bootstrap.Attach(); err != nil {
			fmt.Fprintf(os.Stderr, "bootstrapper: %v\n", err)
		}
	})
}

// bootstrapper_attach runs the attach sequence once; later calls return at
// once. On Linux the library constructor calls it on the loading thread.
//
//export bootstrapper_attach
func bootstrapper_attach() {
	attach()
}

// bootstrapper_load_assembly loads the given assembly into the runtime that is
// already running and calls the method. The arguments are NUL terminated
// char_t strings owned by the caller; they are handed to hostfxr unchanged. It
// runs synchronously on the calling thread and returns a load result code.
//
//export bootstrapper_load_assembly
func bootstrapper_load_assembly(runtimeConfigPath, assemblyPath, typeName, methodName unsafe.Pointer) C.uint32_t {
	p := hostfxr.NativeParameters(runtimeConfigPath, assemblyPath, typeName, methodName)

	attach()
	library := platform.HostingLibraryName
	if attachment != nil {
		library = attachment.Settings.HostingLibrary
	}

	result := hostfxr.NewNativeLoader(library).Load(p)
	slog.Info("bootstrapper_load_assembly finished", "result", result, "code", uint32(result))
	return C.uint32_t(result)
}

func main() {}
