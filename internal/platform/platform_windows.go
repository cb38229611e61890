//go:build windows

package platform

import (
	"fmt"
	"syscall"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	// HostingLibraryName is the file name hostfxr is mapped under.
	HostingLibraryName = "hostfxr.dll"
	// ProcessImage is not a usable handle on Windows, primitives name their
	// module explicitly.
	ProcessImage Library = 0

	ReadExecute      Protection = windows.PAGE_EXECUTE_READ
	ReadWriteExecute Protection = windows.PAGE_EXECUTE_READWRITE
)

var (
	modkernel32 = windows.NewLazySystemDLL("kernel32.dll")

	procFlushInstructionCache = modkernel32.NewProc("FlushInstructionCache")
	procSuspendThread         = modkernel32.NewProc("SuspendThread")
	procSetLastError          = modkernel32.NewProc("SetLastError")
)

var native Platform = &nt{}

type nt struct{}

func (nt) ResolveLibrary(name string) (Library, error) {
	n, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	var h windows.Handle
	if err := windows.GetModuleHandleEx(windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT, n, &h); err != nil || h == 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrLibraryNotFound)
	}
	return Library(h), nil
}

func (nt) ResolveSymbol(lib Library, name string) (uintptr, error) {
	addr, err := windows.GetProcAddress(windows.Handle(lib), name)
	if err != nil || addr == 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrSymbolNotFound)
	}
	return addr, nil
}

func (nt) Protect(addr, size uintptr, prot Protection) (Protection, error) {
	var old uint32
	if err := windows.VirtualProtect(addr, size, uint32(prot), &old); err != nil {
		return 0, fmt.Errorf("VirtualProtect %#x+%d: %w", addr, size, err)
	}
	return Protection(old), nil
}

func (nt) FlushInstructionCache(addr, size uintptr) error {
	r1, _, err := procFlushInstructionCache.Call(uintptr(windows.CurrentProcess()), addr, size)
	if r1 == 0 {
		return fmt.Errorf("FlushInstructionCache %#x+%d: %w", addr, size, err)
	}
	return nil
}

func (nt) SuspendCurrentThread() {
	_, _, _ = procSuspendThread.Call(uintptr(windows.CurrentThread()))
	for {
		windows.SleepEx(windows.INFINITE, false)
	}
}

// Call invokes a C function pointer with the native calling convention.
//
//go:uintptrescapes
func Call(fn uintptr, args ...uintptr) uintptr {
	r1, _, _ := syscall.SyscallN(fn, args...)
	return r1
}

// CallLastError is Call that also returns the last error value the function
// left on the thread.
//
//go:uintptrescapes
func CallLastError(fn uintptr, args ...uintptr) (uintptr, syscall.Errno) {
	r1, _, errno := syscall.SyscallN(fn, args...)
	return r1, errno
}

// SetLastError sets the last error value of the calling thread.
func SetLastError(errno syscall.Errno) {
	_, _, _ = procSetLastError.Call(uintptr(errno))
}

// CharString returns a NUL terminated char_t (UTF-16) copy of s.
func CharString(s string) unsafe.Pointer {
	u := append(utf16.Encode([]rune(s)), 0)
	return unsafe.Pointer(&u[0])
}

// GoString copies a NUL terminated char_t (UTF-16) string.
func GoString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	return windows.UTF16PtrToString((*uint16)(p))
}

// NewCallback returns a stdcall function pointer for fn.
func NewCallback(fn any) uintptr {
	return windows.NewCallback(fn)
}
