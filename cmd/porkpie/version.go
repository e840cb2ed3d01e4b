package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/porkpie"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of porkpie",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "porkpie version %s\n", strings.TrimSpace(porkpie.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
