package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"worklog/core/clock"
	"worklog/core/models"

	"github.com/klauspost/compress/zstd"
	"github.com/minio/minio-go/v7"
)

// ArchiveExtension is the suffix of every archived snapshot.
const ArchiveExtension = ".json.zst"

// archiveStamp sorts lexically in time order.
const archiveStamp = "20060102T150405.000Z"

// ErrBucketMissing is returned when the archive bucket does not exist.
var ErrBucketMissing = errors.New("archive bucket does not exist")

// Archive describes one stored snapshot.
type Archive struct {
	Name string `json:"name" yaml:"name"`
	Size int64  `json:"size" yaml:"size"`
}

// snapshotDocument is the archived payload.
type snapshotDocument struct {
	ArchivedAt string             `json:"archivedAt"`
	Records    []models.LogRecord `json:"records"`
}

// Archiver writes compressed snapshots to a bucket.
type Archiver struct {
	client  Client
	bucket  string
	prefix  string
	keep    int
	clock   clock.Clock
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewArchiver creates an archiver for cfg.Bucket.
func NewArchiver(client Client, cfg Config, clk clock.Clock) (*Archiver, error) {
	if client == nil {
		return nil, errors.New("storage client is required")
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &Archiver{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		keep:    cfg.Keep,
		clock:   clk,
		encoder: enc,
		decoder: dec,
	}, nil
}

// Bucket returns the archive bucket name.
func (a *Archiver) Bucket() string {
	return a.bucket
}

// EnsureBucket creates the bucket when it does not exist.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Archive uploads records and returns the object name.
func (a *Archiver) Archive(ctx context.Context, records []models.LogRecord) (string, error) {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return "", fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if !exists {
		return "", fmt.Errorf("%w: %s", ErrBucketMissing, a.bucket)
	}

	now := a.clock.Now().UTC()
	if records == nil {
		records = []models.LogRecord{}
	}
	raw, err := json.Marshal(snapshotDocument{ArchivedAt: now.Format("2006-01-02T15:04:05.000Z07:00"), Records: records})
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}
	compressed := a.encoder.EncodeAll(raw, nil)

	name := a.objectName(now.Format(archiveStamp) + ArchiveExtension)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(compressed), int64(len(compressed)), minio.PutObjectOptions{
		ContentType:     "application/json",
		ContentEncoding: "zstd",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}
	return name, nil
}

// List returns archived snapshots, newest first.
func (a *Archiver) List(ctx context.Context) ([]Archive, error) {
	prefix := ""
	if a.prefix != "" {
		prefix = a.prefix + "/"
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var archives []Archive
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", a.bucket, obj.Err)
		}
		if !strings.HasSuffix(obj.Key, ArchiveExtension) {
			continue
		}
		archives = append(archives, Archive{Name: obj.Key, Size: obj.Size})
	}
	sort.Slice(archives, func(i, j int) bool { return archives[i].Name > archives[j].Name })
	return archives, nil
}

// Load downloads and decodes the archive called name.
func (a *Archiver) Load(ctx context.Context, name string) ([]models.LogRecord, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}
	defer obj.Close()

	compressed, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	raw, err := a.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", name, err)
	}
	var doc snapshotDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return doc.Records, nil
}

// Prune removes all but the newest Keep archives and returns how many were removed.
func (a *Archiver) Prune(ctx context.Context) (int, error) {
	if a.keep <= 0 {
		return 0, nil
	}
	archives, err := a.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(archives) <= a.keep {
		return 0, nil
	}
	stale := archives[a.keep:]

	objectsCh := make(chan minio.ObjectInfo, len(stale))
	for _, arc := range stale {
		objectsCh <- minio.ObjectInfo{Key: arc.Name}
	}
	close(objectsCh)

	var errs []error
	for rerr := range a.client.RemoveObjects(ctx, a.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		errs = append(errs, fmt.Errorf("failed to remove %s: %w", rerr.ObjectName, rerr.Err))
	}
	if len(errs) > 0 {
		return len(stale) - len(errs), errors.Join(errs...)
	}
	return len(stale), nil
}

func (a *Archiver) objectName(file string) string {
	if a.prefix == "" {
		return file
	}
	return path.Join(a.prefix, file)
}
