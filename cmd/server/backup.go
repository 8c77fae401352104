package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alpho052/career-guidance-platform/internal/db"
)

var backupCmd = &cobra.Command{
	Use:   "backup [destination]",
	Short: "Write a consistent snapshot of the database",
	Long:  "backup snapshots the database with VACUUM INTO. The destination defaults to <database_path>.bak and must not exist.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		dst := cfg.DatabasePath + ".bak"
		if len(args) == 1 {
			dst = args[0]
		}

		ctx := cmd.Context()
		conn, err := db.New(ctx, cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer conn.Close()

		if _, err := conn.Exec(ctx, `VACUUM INTO ?`, dst); err != nil {
			return fmt.Errorf("backup to %s: %w", dst, err)
		}
		log.Info("database backup completed", zap.String("destination", dst))
		return nil
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore [source]",
	Short: "Replace the database with a backup file",
	Long:  "restore copies a backup over the database file. Stop the server first. The source defaults to <database_path>.bak.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := bootstrap()
		if err != nil {
			return err
		}
		defer log.Sync() //nolint:errcheck

		src := cfg.DatabasePath + ".bak"
		if len(args) == 1 {
			src = args[0]
		}
		if err := copyFile(src, cfg.DatabasePath); err != nil {
			return fmt.Errorf("restore from %s: %w", src, err)
		}
		log.Info("database restore completed", zap.String("source", src))
		return nil
	},
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func init() {
	rootCmd.AddCommand(backupCmd, restoreCmd)
}
