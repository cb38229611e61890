// Package procargs reads the command line of the current process.
package procargs

import (
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/process"
)

// List returns the command line of the current process as the OS reports it,
// program name first. When the OS cannot be asked, the arguments the Go
// runtime captured are returned along with the error.
func List() ([]string, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return os.Args, fmt.Errorf("could not open current process: %w", err)
	}

	args, err := proc.CmdlineSlice()
	if err != nil {
		return os.Args, fmt.Errorf("could not read command line: %w", err)
	}
	return args, nil
}

// Has reports whether one of args equals flag, ignoring case.
func Has(args []string, flag string) bool {
	return lo.ContainsBy(args, func(arg string) bool {
		return strings.EqualFold(arg, flag)
	})
}
