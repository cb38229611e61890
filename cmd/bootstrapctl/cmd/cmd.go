// Package cmd holds the bootstrapctl commands.
package cmd

import (
	"log/slog"

	"github.com/k2io/bootstrapper/internal/logging"

	"github.com/spf13/cobra"
)

const cliName = "bootstrapctl"

func CreateRootCmd() *cobra.Command {
	verbosity := "warn"

	cmd := &cobra.Command{
		Use:               cliName,
		Short:             cliName + " – inspect and launch .NET processes with the bootstrapper",
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := logging.Initialize(logging.Config{Enabled: true, Level: verbosity}); err != nil {
				return err
			}
			slog.Debug("log level set", "level", verbosity)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", verbosity, "log level, name (debug, info, warn, error) or number")

	cmd.AddCommand(newExportsCmd())
	cmd.AddCommand(newSettingsCmd())
	cmd.AddCommand(newLaunchCmd())

	return cmd
}
