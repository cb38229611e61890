package moduledir

import (
	"fmt"

	"github.com/prometheus/procfs"
)

// imagePath returns the file backing the mapping that contains addr.
func imagePath(addr uintptr) (string, error) {
	self, err := procfs.Self()
	if err != nil {
		return "", err
	}

	maps, err := self.ProcMaps()
	if err != nil {
		return "", err
	}

	for _, m := range maps {
		if addr >= m.StartAddr && addr < m.EndAddr && m.Pathname != "" {
			return m.Pathname, nil
		}
	}
	return "", fmt.Errorf("no file mapping contains 0x%x", addr)
}
