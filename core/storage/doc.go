// Package storage archives published audio clips in S3-compatible object storage.
//
// It wraps the MinIO Go client, so both AWS S3 and self-hosted MinIO work. The
// archive is optional: when enabled, every clip uploaded to Anki's media folder
// is also written to the configured bucket, which keeps a copy outside the Anki
// collection.
//
// # Client Interface
//
// The Client interface is the subset of the MinIO client the archive needs,
// which keeps it easy to mock (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
//	err = storage.Archive(ctx, client, cfg.Storage.Bucket, cfg.Storage.Prefix, "azv_Front_1.mp3", data)
package storage
