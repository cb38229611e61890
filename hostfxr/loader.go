// Package hostfxr loads a managed assembly into the .NET runtime already
// running in the process and calls one of its unmanaged entry points.
package hostfxr

import (
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/k2io/bootstrapper/internal/platform"
)

// Parameters name the runtime configuration, the assembly and the
// [UnmanagedCallersOnly] method to call. They are passed to hostfxr as is.
type Parameters struct {
	RuntimeConfigPath string
	AssemblyPath      string
	TypeName          string
	MethodName        string

	// the caller's char_t strings the fields were decoded from
	native *[4]unsafe.Pointer
}

// NativeParameters takes the four NUL terminated char_t strings of a native
// caller. Load hands these pointers to hostfxr, the string fields are copies
// for logging.
func NativeParameters(runtimeConfigPath, assemblyPath, typeName, methodName unsafe.Pointer) Parameters {
	return Parameters{
		RuntimeConfigPath: platform.GoString(runtimeConfigPath),
		AssemblyPath:      platform.GoString(assemblyPath),
		TypeName:          platform.GoString(typeName),
		MethodName:        platform.GoString(methodName),
		native:            &[4]unsafe.Pointer{runtimeConfigPath, assemblyPath, typeName, methodName},
	}
}

// texts returns the arguments in call order.
func (p Parameters) texts() (runtimeConfigPath, assemblyPath, typeName, methodName Text) {
	if p.native != nil {
		return NativeText(p.native[0]), NativeText(p.native[1]), NativeText(p.native[2]), NativeText(p.native[3])
	}
	return Text{Value: p.RuntimeConfigPath}, Text{Value: p.AssemblyPath}, Text{Value: p.TypeName}, Text{Value: p.MethodName}
}

// Names of the hostfxr exports the loader binds.
const (
	SymbolInitializeForRuntimeConfig = "hostfxr_initialize_for_runtime_config"
	SymbolGetRuntimeDelegate         = "hostfxr_get_runtime_delegate"
	SymbolClose                      = "hostfxr_close"
)

// RequiredSymbols lists every export Load needs.
var RequiredSymbols = []string{SymbolInitializeForRuntimeConfig, SymbolGetRuntimeDelegate, SymbolClose}

// Resolver finds loaded modules and their exports.
type Resolver interface {
	ResolveLibrary(name string) (platform.Library, error)
	ResolveSymbol(lib platform.Library, name string) (uintptr, error)
}

type Loader struct {
	resolver Resolver
	runtime  Runtime
	library  string
}

func NewLoader(resolver Resolver, runtime Runtime, library string) *Loader {
	return &Loader{resolver: resolver, runtime: runtime, library: library}
}

// NewNativeLoader returns a loader calling into library through the
// platform of the running OS.
func NewNativeLoader(library string) *Loader {
	return NewLoader(platform.Native(), nativeRuntime{}, library)
}

// Library is the module name the loader resolves.
func (l *Loader) Library() string {
	return l.library
}

// Load runs one attempt; it never retries. The entry point runs on the
// calling thread and Load returns when it does.
func (l *Loader) Load(p Parameters) Result {
	lib, err := l.resolver.ResolveLibrary(l.library)
	if err != nil {
		slog.Error("Failed to load hosting library", "library", l.library, "error", err)
		return HostFxrLoadError
	}

	slog.Info("Loading assembly",
		"runtimeConfigPath", p.RuntimeConfigPath,
		"assemblyPath", p.AssemblyPath,
		"typeName", p.TypeName,
		"methodName", p.MethodName)

	exports, ok := l.exports(lib)
	if !ok {
		return HostFxrFptrLoadError
	}

	runtimeConfigPath, assemblyPath, typeName, methodName := p.texts()

	h, rc := l.runtime.InitializeForRuntimeConfig(exports.InitializeForRuntimeConfig, runtimeConfigPath)
	slog.Info("hostfxr_initialize_for_runtime_config", "status", status(rc))

	if rc != successHostAlreadyInitialized || h == 0 {
		if h != 0 {
			l.close(exports.Close, h)
		}
		return InitializeRuntimeConfigError
	}
	defer l.close(exports.Close, h)

	delegate, rc := l.runtime.GetRuntimeDelegate(exports.GetRuntimeDelegate, h, LoadAssemblyAndGetFunctionPointer)
	if rc != 0 || delegate == 0 {
		slog.Error("hostfxr_get_runtime_delegate failed", "status", status(rc))
		return GetRuntimeDelegateError
	}

	entryPoint, rc := l.runtime.LoadAssemblyAndGetFunctionPointer(delegate, assemblyPath, typeName, methodName)
	if rc != 0 || entryPoint == 0 {
		slog.Error("load_assembly_and_get_function_pointer failed", "status", status(rc))
		return EntryPointError
	}

	slog.Info("Invoking managed entry point")
	l.runtime.Invoke(entryPoint)

	return Success
}

func (l *Loader) exports(lib platform.Library) (Exports, bool) {
	var (
		e    Exports
		errs []any
	)
	for _, s := range []struct {
		name string
		dst  *uintptr
	}{
		{SymbolInitializeForRuntimeConfig, &e.InitializeForRuntimeConfig},
		{SymbolGetRuntimeDelegate, &e.GetRuntimeDelegate},
		{SymbolClose, &e.Close},
	} {
		addr, err := l.resolver.ResolveSymbol(lib, s.name)
		if err != nil {
			errs = append(errs, s.name, err)
			continue
		}
		*s.dst = addr
	}
	if len(errs) > 0 {
		slog.Error("Failed to resolve hostfxr exports", errs...)
		return e, false
	}
	return e, true
}

func (l *Loader) close(fn uintptr, h Handle) {
	if rc := l.runtime.Close(fn, h); rc != 0 {
		slog.Warn("hostfxr_close failed", "status", status(rc))
	}
}

func status(rc int32) string {
	return fmt.Sprintf("0x%08X", uint32(rc))
}
