package cmd

import (
	"os"
	"strconv"

	"github.com/k2io/bootstrapper/bootstrap"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var environmentVariables = []string{
	bootstrap.EnvRuntimeConfigPath,
	bootstrap.EnvAssemblyPath,
	bootstrap.EnvTypeName,
	bootstrap.EnvMethodName,
}

func newSettingsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settings",
		Short: "Show the build-time settings and the environment override",
		Long: "Show the build-time settings this binary was linked with and whether the environment overrides the load parameters.\n" +
			"The bootstrapper library uses the same values when built with the same -ldflags.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettings(cmd, os.LookupEnv)
		},
	}
}

func runSettings(cmd *cobra.Command, lookupEnv func(string) (string, bool)) error {
	s, err := bootstrap.DefaultSettings()
	if err != nil {
		return err
	}

	data := pterm.TableData{
		{"Setting", "Value"},
		{"Logging", strconv.FormatBool(s.LoggingEnabled)},
		{"Exit hooks", strconv.FormatBool(s.ExitHooksEnabled)},
		{"Timeout", s.Timeout.String()},
		{"Interval", s.Interval.String()},
		{"Runtime config file", s.RuntimeConfigFile},
		{"Assembly file", s.AssemblyFile},
		{"Type", s.TypeName},
		{"Method", s.MethodName},
		{"Log file", s.LogFileName},
		{"Log level", s.LogLevel},
		{"Hosting library", s.HostingLibrary},
	}

	set := 0
	for _, name := range environmentVariables {
		value, ok := lookupEnv(name)
		if ok && value != "" {
			set++
		} else {
			value = "<unset>"
		}
		data = append(data, []string{name, value})
	}

	override := "no, using build-time constants"
	if set == len(environmentVariables) {
		override = "yes"
	}
	data = append(data, []string{"Environment override", override})

	return pterm.DefaultTable.WithHasHeader().WithWriter(cmd.OutOrStdout()).WithData(data).Render()
}
