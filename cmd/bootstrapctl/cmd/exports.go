package cmd

import (
	"fmt"
	"strings"

	"github.com/k2io/bootstrapper/hostfxr"
	"github.com/k2io/bootstrapper/internal/symbols"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newExportsCmd() *cobra.Command {
	requireHostfxr := false

	cmd := &cobra.Command{
		Use:   "exports <image>",
		Short: "List the exported symbols of an ELF, PE or Mach-O image",
		Example: cliName + " exports ./libbootstrapper.so\n" +
			cliName + " exports --require-hostfxr /usr/share/dotnet/host/fxr/8.0.0/libhostfxr.so",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExports(cmd, args[0], requireHostfxr)
		},
	}

	cmd.Flags().BoolVar(&requireHostfxr, "require-hostfxr", false, "fail unless the hostfxr entry points used by the loader are exported")

	return cmd
}

func runExports(cmd *cobra.Command, image string, requireHostfxr bool) error {
	exports, err := symbols.ReadExports(image)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range exports.Names() {
		fmt.Fprintf(out, "0x%08x %s\n", exports[name], name)
	}

	if !requireHostfxr {
		return nil
	}
	if missing := exports.Missing(hostfxr.RequiredSymbols...); len(missing) > 0 {
		return fmt.Errorf("%s does not export %s", image, strings.Join(missing, ", "))
	}
	pterm.Success.Printfln("%s exports all hostfxr entry points", image)
	return nil
}
