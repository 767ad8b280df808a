package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set via -ldflags "-X main.version=..." at build time; it
// defaults to "dev" for local builds.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the setuptrader version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("setuptrader", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
