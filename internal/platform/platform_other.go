//go:build !linux && !windows

package platform

import (
	"unsafe"
)

const (
	HostingLibraryName = "libhostfxr"

	ProcessImage Library = 0

	ReadExecute      Protection = 0x5
	ReadWriteExecute Protection = 0x7
)

var native Platform = unsupported{}

type unsupported struct{}

func (unsupported) ResolveLibrary(string) (Library, error) { return 0, ErrUnsupported }

func (unsupported) ResolveSymbol(Library, string) (uintptr, error) { return 0, ErrUnsupported }

func (unsupported) Protect(uintptr, uintptr, Protection) (Protection, error) {
	return 0, ErrUnsupported
}

func (unsupported) FlushInstructionCache(uintptr, uintptr) error { return ErrUnsupported }

func (unsupported) SuspendCurrentThread() {
	select {}
}

func Call(fn uintptr, args ...uintptr) uintptr {
	panic(ErrUnsupported)
}

func CharString(s string) unsafe.Pointer {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return unsafe.Pointer(&b[0])
}

func GoString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

func NewCallback(fn any) uintptr {
	panic(ErrUnsupported)
}
