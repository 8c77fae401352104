package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	dbfs "github.com/Alpho052/career-guidance-platform/db"
	"github.com/Alpho052/career-guidance-platform/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		ctx := cmd.Context()
		conn, err := db.New(ctx, cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer conn.Close()

		if err := db.Migrate(ctx, conn, dbfs.Migrations); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied", zap.String("database", cfg.DatabasePath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
