//go:build !linux && !windows

package moduledir

import "os"

func imagePath(uintptr) (string, error) {
	return os.Executable()
}
