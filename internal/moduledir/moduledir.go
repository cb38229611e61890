// Package moduledir finds the directory of the image this code was linked
// into. For a shared library loaded into a host that is the library's own
// directory, not the host executable's.
package moduledir

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
)

const fallback = "."

// Dir returns the absolute directory of the loaded image, or "." when it
// cannot be determined.
func Dir() string {
	path, err := imagePath(reflect.ValueOf(Dir).Pointer())
	if err != nil {
		slog.Debug("Image path lookup failed, trying executable", "error", err)
		if path, err = os.Executable(); err != nil {
			slog.Warn("Could not determine module directory", "error", err)
			return fallback
		}
	}

	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return fallback
	}
	return dir
}
