package main

import (
	"context"
	"fmt"

	"github.com/hyperengineering/protrack/internal/backup"
	"github.com/hyperengineering/protrack/internal/config"
	"github.com/hyperengineering/protrack/internal/store"
	"github.com/hyperengineering/protrack/internal/worker"
	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Upload one database backup now",
	Long:  "Copy the database with VACUUM INTO and upload it to the configured S3 bucket.",
	Args:  cobra.NoArgs,
	RunE:  runBackup,
}

func init() {
	rootCmd.AddCommand(backupCmd)
}

func newBackupWorker(source worker.BackupSource, cfg config.BackupConfig) (*worker.BackupWorker, error) {
	uploader, err := backup.NewUploader(cfg)
	if err != nil {
		return nil, err
	}
	return worker.NewBackupWorker(source, uploader, cfg.Prefix, cfg.Schedule)
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadOffline()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	w, err := newBackupWorker(db, cfg.Backup)
	if err != nil {
		return err
	}

	key, err := w.RunOnce(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Uploaded s3://%s/%s\n", cfg.Backup.Bucket, key)
	return nil
}
