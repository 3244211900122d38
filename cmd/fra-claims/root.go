package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fra-claims/internal/app"
	"github.com/joseph-ayodele/fra-claims/internal/common"
)

var (
	dbURL      string
	stagingDir string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "fra-claims",
	Short: "Digitize and manage Forest Rights Act claim documents",
	Long: `fra-claims recovers text from scanned claim documents, extracts the
claim fields, and keeps the claim and village stores in sync.

Configuration comes from the same environment variables as fra-claimsd;
flags override them.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "database DSN (overrides DB_URL)")
	rootCmd.PersistentFlags().StringVar(&stagingDir, "staging-dir", "", "upload staging directory (overrides STAGING_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func loadConfig() (*common.Config, *slog.Logger, error) {
	cfg := common.LoadConfig()
	if dbURL != "" {
		cfg.Database.DSN = dbURL
	}
	if stagingDir != "" {
		cfg.Staging.Dir = stagingDir
	}
	if verbose {
		cfg.LogLevel = slog.LevelDebug
	}
	logger := app.NewLogger(cfg.LogLevel, false)
	slog.SetDefault(logger)
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// withApp wires the full pipeline, runs fn, then drains background work.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func(a *app.App) {
		drainCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		a.Close(drainCtx)
	}(a)
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
