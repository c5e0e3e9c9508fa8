// Package backup ships database backups to S3-compatible storage.
// When no bucket is configured the NoopUploader is used and uploads are
// skipped.
package backup

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/protrack/internal/config"
)

// ErrNotConfigured is returned when backup storage is not configured.
var ErrNotConfigured = errors.New("backup storage not configured")

// Uploader stores one backup file under an object key.
type Uploader interface {
	Upload(ctx context.Context, key, filePath string) error
}

// s3Client is the subset of *minio.Client used by S3Uploader.
type s3Client interface {
	FPutObject(ctx context.Context, bucket, objectName, filePath string) error
}

type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) FPutObject(ctx context.Context, bucket, objectName, filePath string) error {
	_, err := w.client.FPutObject(ctx, bucket, objectName, filePath, minio.PutObjectOptions{
		ContentType: "application/vnd.sqlite3",
	})
	return err
}

// S3Uploader uploads backups to S3-compatible storage.
type S3Uploader struct {
	client s3Client
	bucket string
}

// Upload implements Uploader.
func (u *S3Uploader) Upload(ctx context.Context, key, filePath string) error {
	if err := u.client.FPutObject(ctx, u.bucket, key, filePath); err != nil {
		return fmt.Errorf("upload backup to S3: %w", err)
	}
	return nil
}

// NoopUploader reports ErrNotConfigured for every upload.
type NoopUploader struct{}

// Upload implements Uploader.
func (NoopUploader) Upload(ctx context.Context, key, filePath string) error {
	return ErrNotConfigured
}

// NewUploader returns a NoopUploader when the bucket is empty and an
// S3Uploader otherwise. UseSSL defaults to true.
func NewUploader(cfg config.BackupConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return NoopUploader{}, nil
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Uploader{
		client: &minioClientWrapper{client: client},
		bucket: cfg.Bucket,
	}, nil
}

// ObjectKey names the backup taken at t: {prefix}protrack-20250101T030000Z.db
func ObjectKey(prefix string, t time.Time) string {
	name := "protrack-" + t.UTC().Format("20060102T150405Z") + ".db"
	if prefix == "" {
		return name
	}
	return path.Clean(prefix+"/") + "/" + name
}
