//go:build linux

package platform

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/prometheus/procfs"
	"golang.org/x/sys/unix"
)

const (
	// HostingLibraryName is the file name hostfxr is mapped under.
	HostingLibraryName = "libhostfxr.so"
	// ProcessImage resolves symbols in the global namespace of the process.
	ProcessImage Library = purego.RTLD_DEFAULT

	ReadExecute      Protection = unix.PROT_READ | unix.PROT_EXEC
	ReadWriteExecute Protection = unix.PROT_READ | unix.PROT_WRITE | unix.PROT_EXEC

	// glibc value, purego does not export it
	rtldNoload = 0x00004
)

var native Platform = &linux{pageSize: uintptr(unix.Getpagesize())}

type linux struct {
	pageSize uintptr
}

func (l *linux) ResolveLibrary(name string) (Library, error) {
	// RTLD_NOLOAD only reports modules the process already mapped
	h, err := purego.Dlopen(name, purego.RTLD_LAZY|rtldNoload)
	if err != nil || h == 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrLibraryNotFound)
	}
	return Library(h), nil
}

func (l *linux) ResolveSymbol(lib Library, name string) (uintptr, error) {
	addr, err := purego.Dlsym(uintptr(lib), name)
	if err != nil || addr == 0 {
		return 0, fmt.Errorf("%s: %w", name, ErrSymbolNotFound)
	}
	return addr, nil
}

// Protect reports the protection of the mapping containing addr as listed in
// /proc/self/maps. When the mapping cannot be found it reports ReadExecute,
// the protection of a text segment.
func (l *linux) Protect(addr, size uintptr, prot Protection) (Protection, error) {
	old := currentProtection(addr)

	start := l.pageSize * (addr / l.pageSize)
	length := addr + size - start
	if err := unix.Mprotect(Bytes(start, length), int(prot)); err != nil {
		return 0, fmt.Errorf("mprotect %#x+%d: %w", start, length, err)
	}
	return old, nil
}

func currentProtection(addr uintptr) Protection {
	self, err := procfs.Self()
	if err != nil {
		return ReadExecute
	}
	maps, err := self.ProcMaps()
	if err != nil {
		return ReadExecute
	}
	for _, m := range maps {
		if addr < m.StartAddr || addr >= m.EndAddr || m.Perms == nil {
			continue
		}
		var prot Protection
		if m.Perms.Read {
			prot |= unix.PROT_READ
		}
		if m.Perms.Write {
			prot |= unix.PROT_WRITE
		}
		if m.Perms.Execute {
			prot |= unix.PROT_EXEC
		}
		return prot
	}
	return ReadExecute
}

// FlushInstructionCache is a no-op: x86 keeps the instruction cache coherent
// with stores from the same process.
func (l *linux) FlushInstructionCache(addr, size uintptr) error {
	return nil
}

func (l *linux) SuspendCurrentThread() {
	for {
		_, _ = unix.Ppoll(nil, nil, nil)
	}
}

// Call invokes a C function pointer with the native calling convention.
//
//go:uintptrescapes
func Call(fn uintptr, args ...uintptr) uintptr {
	r1, _, _ := purego.SyscallN(fn, args...)
	return r1
}

// CharString returns a NUL terminated char_t copy of s.
func CharString(s string) unsafe.Pointer {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return unsafe.Pointer(&b[0])
}

// GoString copies a NUL terminated char_t string.
func GoString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	return unix.BytePtrToString((*byte)(p))
}

// NewCallback returns a C callable function pointer for fn.
func NewCallback(fn any) uintptr {
	return purego.NewCallback(fn)
}
