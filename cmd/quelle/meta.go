package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newMetaCmd())
}

func newMetaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "meta",
		Short:   "Print an extension's metadata",
		Long:    `Load an extension and print the result of its meta() export as JSON.`,
		Example: `  quelle meta --extension ./extensions/example.wasm`,
		Args:    cobra.NoArgs,
		RunE: withRuntime(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			ext, err := loadExtensionFromFlag(ctx, cmd)
			if err != nil {
				return err
			}
			defer ext.Close(ctx.Context)

			meta, err := ext.Meta(ctx.Context)
			if err != nil {
				return fmt.Errorf("failed to read meta: %w", err)
			}

			encoded, err := json.MarshalIndent(meta, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode meta: %w", err)
			}

			fmt.Println(string(encoded))
			return nil
		}),
	}

	addExtensionFlag(cmd)
	return cmd
}
