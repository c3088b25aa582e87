package checks

import (
	"context"
	"fmt"
	"strings"

	"worklog/core/storage"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ArchiveReport describes the snapshot archive bucket.
type ArchiveReport struct {
	Bucket    string `json:"bucket"`
	Exists    bool   `json:"exists"`
	Snapshots int    `json:"snapshots"`
}

// CheckArchive reports whether bucket exists and how many snapshots it holds
// under prefix.
func CheckArchive(ctx context.Context, client storage.Client, bucket, prefix string) (*ArchiveReport, error) {
	report := &ArchiveReport{Bucket: bucket}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return report, nil
	}
	report.Exists = true

	opts := minio.ListObjectsOptions{Recursive: true}
	if prefix = strings.Trim(prefix, "/"); prefix != "" {
		opts.Prefix = prefix + "/"
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	for obj := range client.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list bucket %s: %w", bucket, obj.Err)
		}
		if strings.HasSuffix(obj.Key, storage.ArchiveExtension) {
			report.Snapshots++
		}
	}

	return report, nil
}

// FixArchive creates the missing bucket.
func FixArchive(ctx context.Context, client storage.Client, bucket string, logger *zap.Logger) error {
	if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		logger.Error("Failed to create bucket", zap.String("bucket", bucket), zap.Error(err))
		return err
	}
	logger.Info("Created missing bucket", zap.String("bucket", bucket))
	return nil
}
