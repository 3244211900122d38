package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fra-claims/internal/app"
	"github.com/joseph-ayodele/fra-claims/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the claim and village tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := app.OpenDB(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		db.Close(logger)
		fmt.Fprintln(cmd.OutOrStdout(), "migration complete")
		return nil
	},
}

var dbhealthCmd = &cobra.Command{
	Use:   "dbhealth",
	Short: "Ping the database and summarize its contents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		db, err := app.OpenDB(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer db.Close(logger)

		if err := db.HealthCheck(ctx, time.Second, logger); err != nil {
			return fmt.Errorf("DB health: FAIL (%w)", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "DB health: OK (%s)\n", db.Dialect())

		claims := repository.NewClaimRepository(db, logger)
		n, err := claims.Count(ctx, repository.ClaimFilter{})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "claims count: %d\n", n)

		villages, err := repository.NewLocationRepository(db, logger).List(ctx, "", "")
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "villages count: %d\n", len(villages))

		tally, err := claims.CountByVillage(ctx)
		if err != nil {
			return err
		}
		for i, v := range tally {
			if i == 10 {
				break
			}
			fmt.Fprintf(out, "- %s / %s / %s: %d\n", v.State, v.District, v.Village, v.Count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd, dbhealthCmd)
}
