package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/quellehq/quelle/runtime"
)

// CommandContext provides common command dependencies so individual
// commands can focus on extension operations rather than runtime setup.
type CommandContext struct {
	Runtime *runtime.Runtime
	Logger  *slog.Logger
	Context context.Context
}

// CommandHandler executes with an initialized CommandContext.
type CommandHandler func(*CommandContext, *cobra.Command, []string) error

// withRuntime wraps a command handler with wazero runtime initialization
// and teardown, so every subcommand that needs to load an extension gets
// one without repeating the setup.
//
// Usage:
//
//	cmd := &cobra.Command{
//	    Use: "meta",
//	    RunE: withRuntime(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
//	        ext, err := ctx.Runtime.Load(ctx.Context, args[0], wasmBytes)
//	        ...
//	    }),
//	}
func withRuntime(handler CommandHandler) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		rt, err := runtime.New(cmd.Context(), runtime.Config{})
		if err != nil {
			return fmt.Errorf("failed to initialize runtime: %w", err)
		}
		defer rt.Close(cmd.Context())

		ctx := &CommandContext{
			Runtime: rt,
			Logger:  logger,
			Context: cmd.Context(),
		}

		return handler(ctx, cmd, args)
	}
}

// loadExtensionFromFlag reads the --extension flag, loads the wasm file
// it names, and returns the resulting Extension.
func loadExtensionFromFlag(ctx *CommandContext, cmd *cobra.Command) (*runtime.Extension, error) {
	path, err := cmd.Flags().GetString("extension")
	if err != nil || path == "" {
		return nil, fmt.Errorf("--extension is required")
	}

	wasmBytes, err := readWasmFile(path)
	if err != nil {
		return nil, err
	}

	return ctx.Runtime.Load(ctx.Context, path, wasmBytes)
}

func addExtensionFlag(cmd *cobra.Command) {
	cmd.Flags().String("extension", "", "path to the extension .wasm file")
	_ = cmd.MarkFlagRequired("extension")
}
