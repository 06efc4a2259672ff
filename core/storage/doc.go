// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the small Client interface used by the snapshot archive,
// which writes the normalized remote state of every committed synchronization. Both AWS S3 and
// self-hosted MinIO are supported.
//
// # Operations
//
//   - BucketExists / MakeBucket: used by EnsureBucket at startup.
//   - PutObject: uploads one snapshot.
//   - ListObjects / RemoveObjects: retention pruning.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
