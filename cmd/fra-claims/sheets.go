package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fra-claims/internal/app"
	"github.com/joseph-ayodele/fra-claims/internal/ingest"
	"github.com/joseph-ayodele/fra-claims/internal/repository"
)

var exportFilter repository.ClaimFilter

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx|file.csv>",
	Short: "Import claims from a spreadsheet or CSV file",
	Long: `Import reads the first sheet of an .xlsx workbook, or a CSV file with a
header line. Header names are matched loosely ("Patta Holder", "holder_name"
and "Name" all map to the holder column). Rows that fail validation are
reported and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ingest.AllowedExt(args[0]) {
			return fmt.Errorf("%s: spreadsheet must be .xlsx, .xlsm or .csv", args[0])
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer func(f *os.File) {
				_ = f.Close()
			}(f)

			res, err := a.Importer.Import(ctx, args[0], f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "sheet %q: %d rows, %d created, %d skipped, %d errors\n",
				res.Sheet, res.Rows, len(res.Created), res.Skipped, len(res.Errors))
			return printJSON(cmd.OutOrStdout(), res)
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <out.xlsx>",
	Short: "Export claims to a spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			data, err := a.Exporter.ExportClaimsXLSX(ctx, exportFilter)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", args[0], len(data))
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFilter.State, "state", "", "only claims in this state")
	exportCmd.Flags().StringVar(&exportFilter.District, "district", "", "only claims in this district")
	exportCmd.Flags().StringVar(&exportFilter.Village, "village", "", "village name contains")
	exportCmd.Flags().StringVar(&exportFilter.Status, "status", "", "only claims with this status")
	rootCmd.AddCommand(importCmd, exportCmd)
}
