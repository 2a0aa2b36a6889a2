package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/vibecam"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of vibecam",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "vibecam version %s\n", strings.TrimSpace(vibecam.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
