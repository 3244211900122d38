package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fra-claims/internal/app"
	"github.com/joseph-ayodele/fra-claims/internal/entity"
)

var previewCmd = &cobra.Command{
	Use:   "preview <file>",
	Short: "Extract claim fields from a document without saving",
	Long: `Preview recovers the text of a PDF or image and prints the extracted
text and entities as JSON. Nothing is written to the claim store.

Example:
  fra-claims preview scans/claim-0042.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			staged, err := stageFile(ctx, a, args[0])
			if err != nil {
				return err
			}
			defer func(ref string) {
				_ = a.Pipeline.Discard(ctx, ref)
			}(staged.Ref)

			prev, err := a.Pipeline.Preview(ctx, staged.Ref)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), prev)
		})
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit <file>...",
	Short: "Extract and save claims from one or more documents",
	Long: `Commit runs the full pipeline on each document: text recovery, entity
extraction, claim insert and village canonicalization. A failing document
is reported and the rest continue.

Example:
  fra-claims commit scans/*.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			failed := 0
			for _, path := range args {
				staged, err := stageFile(ctx, a, path)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				out, err := a.Pipeline.Commit(ctx, staged.Ref)
				if err != nil {
					failed++
					_ = a.Pipeline.Discard(ctx, staged.Ref)
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
					continue
				}
				if err := printJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(args))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(previewCmd, commitCmd)
}

func stageFile(ctx context.Context, a *app.App, path string) (*entity.StagedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	return a.Staging.Stage(ctx, filepath.Base(path), f)
}
