// Package symbols reads the export table of an image file on disk.
package symbols

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/samber/lo"
)

var ErrUnrecognized = errors.New("unrecognized object file")

// Exports maps exported names to their image-relative addresses.
type Exports map[string]uintptr

type rawFile interface {
	Exports() (Exports, error)
}

var objTypes = []func(io.ReaderAt) (rawFile, error){
	openElf,
	openPE,
	openMacho,
}

// ReadExports opens name and returns its exports. ELF, PE and Mach-O images
// are recognized.
func ReadExports(name string) (Exports, error) {
	r, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	for _, try := range objTypes {
		raw, err := try(r)
		if err != nil {
			slog.Debug("Not this object format", "file", name, "error", err)
			continue
		}
		return raw.Exports()
	}
	return nil, fmt.Errorf("open %s: %w", name, ErrUnrecognized)
}

// Names returns the exported names in order.
func (e Exports) Names() []string {
	names := lo.Keys(e)
	sort.Strings(names)
	return names
}

// Missing returns the names of required that e does not export.
func (e Exports) Missing(required ...string) []string {
	return lo.Filter(required, func(name string, _ int) bool {
		_, ok := e[name]
		return !ok
	})
}
