package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/k2io/bootstrapper/bootstrap"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const preloadVariable = "LD_PRELOAD"

type launchOptions struct {
	bootstrapper      string
	runtimeConfigPath string
	assemblyPath      string
	typeName          string
	methodName        string
}

func newLaunchCmd() *cobra.Command {
	var opts launchOptions

	cmd := &cobra.Command{
		Use:   "launch [flags] -- <program> [args...]",
		Short: "Start a program with the load parameters in its environment",
		Long: "Start a program with the load parameters in its environment.\n" +
			"On Linux the bootstrapper library is preloaded into the program; elsewhere it has to be injected separately.",
		Example: cliName + " launch --bootstrapper ./libbootstrapper.so --runtime-config ./Patch.runtimeconfig.json \\\n" +
			"  --assembly ./Patch.dll --type 'Patch.Main, Patch' --method Run -- dotnet App.dll",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.bootstrapper, "bootstrapper", "", "path of the bootstrapper shared library")
	flags.StringVar(&opts.runtimeConfigPath, "runtime-config", "", "runtime configuration of the assembly")
	flags.StringVar(&opts.assemblyPath, "assembly", "", "assembly to load")
	flags.StringVar(&opts.typeName, "type", "", "assembly qualified type name")
	flags.StringVar(&opts.methodName, "method", "", "[UnmanagedCallersOnly] method to call")
	flags.SortFlags = false

	for _, name := range []string{"runtime-config", "assembly", "type", "method"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	return cmd
}

func runLaunch(cmd *cobra.Command, opts launchOptions, args []string) error {
	env, err := launchEnvironment(os.Environ(), opts, runtime.GOOS)
	if err != nil {
		return err
	}

	program := exec.CommandContext(cmd.Context(), args[0], args[1:]...)
	program.Env = env
	program.Stdin = os.Stdin
	program.Stdout = cmd.OutOrStdout()
	program.Stderr = cmd.ErrOrStderr()

	slog.Info("Launching", "program", args[0], "args", args[1:])

	if err := program.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s exited with code %d", args[0], exitErr.ExitCode())
		}
		return err
	}
	return nil
}

// launchEnvironment returns base with the load parameters set and, on Linux,
// the bootstrapper prepended to the preload list.
func launchEnvironment(base []string, opts launchOptions, goos string) ([]string, error) {
	env := withVariable(base, bootstrap.EnvRuntimeConfigPath, absolute(opts.runtimeConfigPath))
	env = withVariable(env, bootstrap.EnvAssemblyPath, absolute(opts.assemblyPath))
	env = withVariable(env, bootstrap.EnvTypeName, opts.typeName)
	env = withVariable(env, bootstrap.EnvMethodName, opts.methodName)

	if opts.bootstrapper == "" {
		return env, nil
	}
	if goos != "linux" {
		slog.Warn("Preloading is only supported on Linux, inject the bootstrapper separately", "os", goos)
		return env, nil
	}

	library := absolute(opts.bootstrapper)
	if _, err := os.Stat(library); err != nil {
		return nil, fmt.Errorf("bootstrapper library not accessible: %w", err)
	}

	preload := library
	if existing, ok := lookup(env, preloadVariable); ok && existing != "" {
		preload = library + ":" + existing
	}
	return withVariable(env, preloadVariable, preload), nil
}

func absolute(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func lookup(env []string, name string) (string, bool) {
	prefix := name + "="
	kv, ok := lo.Find(env, func(kv string) bool {
		return strings.HasPrefix(kv, prefix)
	})
	return strings.TrimPrefix(kv, prefix), ok
}

// withVariable returns a copy of env with name set to value, replacing any
// previous definition.
func withVariable(env []string, name, value string) []string {
	prefix := name + "="
	result := lo.Reject(env, func(kv string, _ int) bool {
		return strings.HasPrefix(kv, prefix)
	})
	return append(result, prefix+value)
}
