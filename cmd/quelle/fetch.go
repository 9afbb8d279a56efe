package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newFetchNovelCmd())
	rootCmd.AddCommand(newFetchChapterCmd())
}

func newFetchNovelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fetch-novel <url>",
		Short:   "Fetch a novel's metadata and table of contents",
		Long:    `Load an extension and call its fetch_novel(url) export, printing the result as JSON.`,
		Example: `  quelle fetch-novel --extension ./extensions/example.wasm https://example.com/novel/some-novel`,
		Args:    cobra.ExactArgs(1),
		RunE: withRuntime(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			ext, err := loadExtensionFromFlag(ctx, cmd)
			if err != nil {
				return err
			}
			defer ext.Close(ctx.Context)

			novel, err := ext.FetchNovel(ctx.Context, args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch novel: %w", err)
			}

			encoded, err := json.MarshalIndent(novel, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode novel: %w", err)
			}

			fmt.Println(string(encoded))
			return nil
		}),
	}

	addExtensionFlag(cmd)
	return cmd
}

func newFetchChapterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fetch-chapter <url>",
		Short:   "Fetch a chapter's content",
		Long:    `Load an extension and call its fetch_chapter_content(url) export, printing the raw result.`,
		Example: `  quelle fetch-chapter --extension ./extensions/example.wasm https://example.com/novel/some-novel/chapter-1`,
		Args:    cobra.ExactArgs(1),
		RunE: withRuntime(func(ctx *CommandContext, cmd *cobra.Command, args []string) error {
			ext, err := loadExtensionFromFlag(ctx, cmd)
			if err != nil {
				return err
			}
			defer ext.Close(ctx.Context)

			content, err := ext.FetchChapterContent(ctx.Context, args[0])
			if err != nil {
				return fmt.Errorf("failed to fetch chapter content: %w", err)
			}

			fmt.Println(content)
			return nil
		}),
	}

	addExtensionFlag(cmd)
	return cmd
}
