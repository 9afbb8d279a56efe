package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quellehq/quelle/registry"
)

func init() {
	registryCmd.AddCommand(newRegistrySchemaCmd())
}

func newRegistrySchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "schema",
		Short:   "Print the lock file format as a JSON Schema document",
		Example: `  quelle registry schema`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, err := registry.Schema()
			if err != nil {
				return fmt.Errorf("failed to generate schema: %w", err)
			}
			fmt.Println(string(schema))
			return nil
		},
	}
}
