package symbols

import (
	"io"

	"github.com/Binject/debug/pe"
)

type peFile struct {
	pe *pe.File
}

func openPE(r io.ReaderAt) (rawFile, error) {
	f, err := pe.NewFile(r)
	if err != nil {
		return nil, err
	}
	return &peFile{f}, nil
}

// Exports are the named entries of the export directory; ordinal-only
// entries are skipped.
func (f *peFile) Exports() (Exports, error) {
	entries, err := f.pe.Exports()
	if err != nil {
		return nil, err
	}

	exports := make(Exports, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		exports[e.Name] = uintptr(e.VirtualAddress)
	}
	return exports, nil
}
