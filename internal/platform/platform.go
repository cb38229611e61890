// Package platform selects, once at build time, the operating system
// primitives the bootstrapper depends on: module and symbol lookup, page
// protection, instruction cache maintenance and thread suspension.
package platform

import (
	"errors"
	"unsafe"
)

// Library is a handle to a module mapped into the current process.
type Library uintptr

// Protection is a native page protection value. Its meaning is OS specific;
// ReadExecute and ReadWriteExecute are defined per OS.
type Protection uint32

var (
	// ErrLibraryNotFound means the module is not loaded in the process
	ErrLibraryNotFound = errors.New("library not found")
	// ErrSymbolNotFound means the module does not export the symbol
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrUnsupported means the OS/arch has no implementation
	ErrUnsupported = errors.New("unsupported platform")
)

// Platform is the set of capabilities the hook engine, the exit guard and the
// host loader need from the OS.
type Platform interface {
	// ResolveLibrary returns the handle of an already loaded module.
	ResolveLibrary(name string) (Library, error)
	// ResolveSymbol returns the address of an exported symbol of lib.
	ResolveSymbol(lib Library, name string) (uintptr, error)
	// Protect changes the protection of the pages covering [addr, addr+size)
	// and returns the protection to restore afterwards.
	Protect(addr, size uintptr, prot Protection) (Protection, error)
	FlushInstructionCache(addr, size uintptr) error
	// SuspendCurrentThread parks the calling OS thread and never returns.
	SuspendCurrentThread()
}

// Native returns the implementation for the running OS.
func Native() Platform {
	return native
}

// Bytes exposes size bytes of process memory at addr.
func Bytes(addr, size uintptr) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
}
