package hostfxr

import (
	"unsafe"

	"github.com/k2io/bootstrapper/internal/platform"
)

// Handle is an opaque hostfxr host context.
type Handle uintptr

// DelegateType selects the runtime functionality returned by
// hostfxr_get_runtime_delegate.
type DelegateType int32

const (
	// hdt_load_assembly_and_get_function_pointer
	LoadAssemblyAndGetFunctionPointer DelegateType = 5
)

const (
	// Success_HostAlreadyInitialized, the status of initializing against a
	// runtime that is already running in the process
	successHostAlreadyInitialized int32 = 0x00000001
	// UNMANAGEDCALLERSONLY_METHOD, (const char_t*)-1
	unmanagedCallersOnlyMethod = ^uintptr(0)
)

// Exports are the hostfxr entry points the loader needs.
type Exports struct {
	InitializeForRuntimeConfig uintptr
	GetRuntimeDelegate         uintptr
	Close                      uintptr
}

// Runtime calls into the hosting library. Every status is the raw int32
// returned by hostfxr.
type Runtime interface {
	InitializeForRuntimeConfig(fn uintptr, runtimeConfigPath Text) (Handle, int32)
	GetRuntimeDelegate(fn uintptr, h Handle, kind DelegateType) (uintptr, int32)
	LoadAssemblyAndGetFunctionPointer(delegate uintptr, assemblyPath, typeName, methodName Text) (uintptr, int32)
	Invoke(entryPoint uintptr)
	Close(fn uintptr, h Handle) int32
}

// nativeRuntime calls the function pointers with the platform calling
// convention, texts are passed as char_t.
type nativeRuntime struct{}

func (nativeRuntime) InitializeForRuntimeConfig(fn uintptr, runtimeConfigPath Text) (Handle, int32) {
	var h Handle
	path := runtimeConfigPath.pointer()
	rc := platform.Call(fn, uintptr(path), 0, uintptr(unsafe.Pointer(&h)))
	return h, int32(rc)
}

func (nativeRuntime) GetRuntimeDelegate(fn uintptr, h Handle, kind DelegateType) (uintptr, int32) {
	var delegate uintptr
	rc := platform.Call(fn, uintptr(h), uintptr(kind), uintptr(unsafe.Pointer(&delegate)))
	return delegate, int32(rc)
}

func (nativeRuntime) LoadAssemblyAndGetFunctionPointer(delegate uintptr, assemblyPath, typeName, methodName Text) (uintptr, int32) {
	var entryPoint uintptr
	assembly := assemblyPath.pointer()
	typ := typeName.pointer()
	method := methodName.pointer()
	rc := platform.Call(delegate,
		uintptr(assembly),
		uintptr(typ),
		uintptr(method),
		unmanagedCallersOnlyMethod,
		0,
		uintptr(unsafe.Pointer(&entryPoint)))
	return entryPoint, int32(rc)
}

func (nativeRuntime) Invoke(entryPoint uintptr) {
	platform.Call(entryPoint)
}

func (nativeRuntime) Close(fn uintptr, h Handle) int32 {
	return int32(platform.Call(fn, uintptr(h)))
}
