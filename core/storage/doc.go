// Package storage archives reconciled snapshots to S3 compatible object storage.
//
// Client narrows the MinIO Go client to the calls the archive needs so tests can
// substitute core/storage/mocks. Archiver encodes a snapshot as JSON, compresses
// it with zstd and uploads it as <prefix>/<timestamp>.json.zst.
//
//	client, err := storage.NewClient(cfg)
//	archiver, err := storage.NewArchiver(client, cfg, clk)
//	name, err := archiver.Archive(ctx, records)
package storage
