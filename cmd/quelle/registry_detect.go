package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quellehq/quelle/registry"
)

func init() {
	registryCmd.AddCommand(newRegistryDetectCmd())
}

func newRegistryDetectCmd() *cobra.Command {
	var lockPath string

	cmd := &cobra.Command{
		Use:     "detect <url>",
		Short:   "Find the extension registered for a URL",
		Long:    `Open a lock file and find the extension whose base URL prefixes the given URL.`,
		Example: `  quelle registry detect --lock lock.json https://example.com/novel/some-novel`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := registry.Open(lockPath)
			if err != nil {
				return fmt.Errorf("failed to open lock file: %w", err)
			}

			ext, ok := lf.Detect(args[0])
			if !ok {
				return fmt.Errorf("no extension registered for %q", args[0])
			}

			encoded, err := json.MarshalIndent(ext, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode extension: %w", err)
			}

			fmt.Println(string(encoded))
			return nil
		},
	}

	cmd.Flags().StringVar(&lockPath, "lock", "lock.json", "path to the lock file")
	return cmd
}
