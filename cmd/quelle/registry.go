package main

import (
	"github.com/spf13/cobra"
)

// registryCmd represents the registry command group.
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Manage the extension lock file",
	Long:  `Generate, inspect, and query the lock file describing every extension available in a directory.`,
}

func init() {
	rootCmd.AddCommand(registryCmd)
}
