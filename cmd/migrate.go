package cmd

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-clubs/config"
	"github.com/vibast-solutions/ms-go-clubs/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, _ *config.Config, db *sql.DB) error {
			if err := database.MigrateUp(ctx, db); err != nil {
				return err
			}
			logrus.Info("Migrations applied")
			return nil
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, _ *config.Config, db *sql.DB) error {
			if err := database.MigrateDown(ctx, db); err != nil {
				return err
			}
			logrus.Info("Migration rolled back")
			return nil
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the status of every migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmd.Context(), func(ctx context.Context, _ *config.Config, db *sql.DB) error {
			return database.MigrationStatus(ctx, db)
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func withDatabase(ctx context.Context, fn func(ctx context.Context, cfg *config.Config, db *sql.DB) error) error {
	cfg := bootstrap()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, cfg, db)
}
