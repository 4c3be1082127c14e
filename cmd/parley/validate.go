package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the model for consistency",
		Long:  `Loads the model, compiles every rule and checks that each member refers to a registered type.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model is valid: %d types, %d objects\n",
				len(a.framework.Registry().Specs()), len(a.seeds))
			return nil
		},
	}
}
