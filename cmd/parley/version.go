package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of parley",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "parley version %s\n", strings.TrimSpace(parley.Version))
		},
	}
}
