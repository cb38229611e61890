package symbols

import (
	"debug/macho"
	"io"
	"strings"
)

const (
	nExt  = 0x01
	nType = 0x0e
	nSect = 0x0e
)

type machoFile struct {
	macho *macho.File
}

func openMacho(r io.ReaderAt) (rawFile, error) {
	f, err := macho.NewFile(r)
	if err != nil {
		return nil, err
	}
	return &machoFile{f}, nil
}

// Exports are the external symbols defined in a section, without the
// leading underscore of the C name mangling.
func (f *machoFile) Exports() (Exports, error) {
	exports := make(Exports)
	if f.macho.Symtab == nil {
		return exports, nil
	}
	for _, s := range f.macho.Symtab.Syms {
		if s.Type&nExt == 0 || s.Type&nType != nSect {
			continue
		}
		exports[strings.TrimPrefix(s.Name, "_")] = uintptr(s.Value)
	}
	return exports, nil
}
