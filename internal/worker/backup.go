package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperengineering/protrack/internal/backup"
	"github.com/robfig/cron/v3"
)

// BackupSource writes a consistent copy of the database to a new file.
type BackupSource interface {
	Backup(ctx context.Context, destPath string) error
}

// BackupWorker copies the database on a cron schedule and uploads the copy.
type BackupWorker struct {
	source   BackupSource
	uploader backup.Uploader
	prefix   string
	spec     string
	schedule cron.Schedule
	tempDir  string
	now      func() time.Time
}

// NewBackupWorker creates a worker. spec uses the same syntax as the
// reminder schedule.
func NewBackupWorker(source BackupSource, uploader backup.Uploader, prefix, spec string) (*BackupWorker, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid backup schedule %q: %w", spec, err)
	}
	return &BackupWorker{
		source:   source,
		uploader: uploader,
		prefix:   prefix,
		spec:     spec,
		schedule: schedule,
		now:      time.Now,
	}, nil
}

// Run starts the worker loop. Blocks until ctx is cancelled.
func (w *BackupWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "backup",
		"schedule", w.spec,
	)

	for {
		now := w.now()
		timer := time.NewTimer(w.schedule.Next(now).Sub(now))

		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "backup",
				"reason", "context_cancelled",
			)
			return
		case <-timer.C:
			if _, err := w.RunOnce(ctx); err != nil && ctx.Err() == nil {
				slog.Error("backup failed",
					"component", "worker",
					"action", "backup_failed",
					"error", err,
				)
			}
		}
	}
}

// RunOnce takes one backup, uploads it and removes the local copy.
// It returns the object key written.
func (w *BackupWorker) RunOnce(ctx context.Context) (string, error) {
	start := time.Now()

	dir, err := os.MkdirTemp(w.tempDir, "protrack-backup-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "protrack.db")
	if err := w.source.Backup(ctx, file); err != nil {
		return "", fmt.Errorf("copy database: %w", err)
	}

	key := backup.ObjectKey(w.prefix, w.now())
	if err := w.uploader.Upload(ctx, key, file); err != nil {
		return "", err
	}

	slog.Info("backup uploaded",
		"component", "worker",
		"action", "backup_complete",
		"key", key,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return key, nil
}
