package moduledir

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

// imagePath returns the file of the module that contains addr.
func imagePath(addr uintptr) (string, error) {
	var module windows.Handle
	err := windows.GetModuleHandleEx(
		windows.GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS|windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT,
		(*uint16)(unsafe.Pointer(addr)),
		&module)
	if err != nil {
		return "", err
	}

	buf := make([]uint16, windows.MAX_LONG_PATH)
	n, err := windows.GetModuleFileName(module, &buf[0], uint32(len(buf)))
	if err != nil {
		return "", err
	}
	return windows.UTF16ToString(buf[:n]), nil
}
