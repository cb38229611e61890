package hostfxr

import (
	"unsafe"

	"github.com/k2io/bootstrapper/internal/platform"
)

// Text is a char_t string argument of a hostfxr call. It is either a Go string,
// encoded when the call is made, or a NUL terminated string owned by a native
// caller, handed over unchanged.
type Text struct {
	// Value is the string, decoded for logging when the text is native
	Value  string
	native unsafe.Pointer
}

// NativeText wraps a caller-owned char_t string.
func NativeText(p unsafe.Pointer) Text {
	return Text{Value: platform.GoString(p), native: p}
}

// Native returns the caller's string, or nil for a Go string.
func (t Text) Native() unsafe.Pointer {
	return t.native
}

func (t Text) String() string {
	return t.Value
}

// pointer returns the char_t string to pass to hostfxr.
func (t Text) pointer() unsafe.Pointer {
	if t.native != nil {
		return t.native
	}
	return platform.CharString(t.Value)
}
