package main

import (
	"log/slog"

	"github.com/aretw0/parley/internal/logging"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "parley",
		Short: "Parley serves declared object models through consent-checked interactions",
		Long: `Parley loads an object model from YAML and exposes its properties, collections
and actions to users and agents. Every interaction is checked for visibility,
usability and validity before it runs.`,
		SilenceUsage: true,
	}

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("model", "m", "parley.yaml", "YAML file declaring the model")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(
		newValidateCmd(),
		newInspectCmd(),
		newServeCmd(),
		newMCPCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func loggerFor(cmd *cobra.Command) (*slog.Logger, error) {
	name, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(name)
	if err != nil {
		return nil, err
	}
	return logging.New(level), nil
}
