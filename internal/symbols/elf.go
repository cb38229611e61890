package symbols

import (
	"debug/elf"
	"io"
)

type elfFile struct {
	elf *elf.File
}

func openElf(r io.ReaderAt) (rawFile, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return nil, err
	}
	return &elfFile{f}, nil
}

// Exports are the defined global or weak dynamic symbols.
func (e *elfFile) Exports() (Exports, error) {
	syms, err := e.elf.DynamicSymbols()
	if err != nil {
		return nil, err
	}

	exports := make(Exports)
	for _, s := range syms {
		if s.Section == elf.SHN_UNDEF || s.Name == "" {
			continue
		}
		switch elf.ST_BIND(s.Info) {
		case elf.STB_GLOBAL, elf.STB_WEAK:
			exports[s.Name] = uintptr(s.Value)
		}
	}
	return exports, nil
}
