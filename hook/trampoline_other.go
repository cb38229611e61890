//go:build !amd64

package hook

func trampoline(uintptr) ([]byte, error) {
	return nil, ErrUnsupportedArch
}
