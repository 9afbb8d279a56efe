package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quellehq/quelle/registry"
)

func init() {
	registryCmd.AddCommand(newRegistryGenerateCmd())
}

func newRegistryGenerateCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:     "generate <extensions-dir>",
		Short:   "Generate a lock file from a directory of extensions",
		Long:    `Scan a directory for .wasm extension modules, probe each one's meta() export, and write the result to a lock file.`,
		Example: `  quelle registry generate ./extensions --out lock.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := registry.Generate(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to generate lock file: %w", err)
			}

			if err := lf.Save(outPath); err != nil {
				return fmt.Errorf("failed to save lock file: %w", err)
			}

			fmt.Printf("generated lock file at %q with %d extension(s)\n", outPath, len(lf.Extensions))
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "lock.json", "path to write the generated lock file")
	return cmd
}
