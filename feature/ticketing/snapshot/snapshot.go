package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"ticketing-sync/core/storage"
	"ticketing-sync/feature/ticketing/lite"
	"ticketing-sync/feature/ticketing/models"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// timestampLayout sorts lexicographically in chronological order.
const timestampLayout = "20060102T150405Z"

// Archiver stores the normalized payload fetched by a run.
type Archiver interface {
	Archive(ctx context.Context, system models.TicketingSystem, runStartedAt time.Time, wrappers []lite.EventSerieWrapper) error
}

// Nop discards snapshots.
type Nop struct{}

// Archive does nothing.
func (Nop) Archive(context.Context, models.TicketingSystem, time.Time, []lite.EventSerieWrapper) error {
	return nil
}

// Document is the archived JSON body.
type Document struct {
	OrganizationID    string                   `json:"organization_id"`
	TicketingSystemID string                   `json:"ticketing_system_id"`
	Provider          string                   `json:"provider"`
	RunStartedAt      time.Time                `json:"run_started_at"`
	Series            []lite.EventSerieWrapper `json:"series"`
}

// StorageArchiver writes snapshots to object storage and keeps the newest Retention per connection.
type StorageArchiver struct {
	client    storage.Client
	bucket    string
	prefix    string
	retention int
	logger    *zap.Logger
}

// NewStorageArchiver creates an archiver. retention <= 0 keeps everything.
func NewStorageArchiver(client storage.Client, bucket, prefix string, retention int, logger *zap.Logger) *StorageArchiver {
	return &StorageArchiver{
		client:    client,
		bucket:    bucket,
		prefix:    strings.Trim(prefix, "/"),
		retention: retention,
		logger:    logger,
	}
}

// Dir returns the folder holding the snapshots of a connection.
func (a *StorageArchiver) Dir(system models.TicketingSystem) string {
	return path.Join(a.prefix, system.OrganizationID, system.ID)
}

// Archive uploads the snapshot and prunes older ones.
func (a *StorageArchiver) Archive(ctx context.Context, system models.TicketingSystem, runStartedAt time.Time, wrappers []lite.EventSerieWrapper) error {
	if wrappers == nil {
		wrappers = []lite.EventSerieWrapper{}
	}
	body, err := json.Marshal(Document{
		OrganizationID:    system.OrganizationID,
		TicketingSystemID: system.ID,
		Provider:          system.Name,
		RunStartedAt:      runStartedAt.UTC(),
		Series:            wrappers,
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	key := path.Join(a.Dir(system), runStartedAt.UTC().Format(timestampLayout)+".json")
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload snapshot %s: %w", key, err)
	}

	a.logger.Debug("Archived snapshot", zap.String("key", key), zap.Int("series", len(wrappers)))
	return a.prune(ctx, system)
}

func (a *StorageArchiver) prune(ctx context.Context, system models.TicketingSystem) error {
	if a.retention <= 0 {
		return nil
	}

	// stops the listing and removal producers when returning early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var keys []string
	for obj := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{Prefix: a.Dir(system) + "/", Recursive: true}) {
		if obj.Err != nil {
			return fmt.Errorf("failed to list snapshots: %w", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	if len(keys) <= a.retention {
		return nil
	}
	sort.Strings(keys)
	stale := keys[:len(keys)-a.retention]

	objects := make(chan minio.ObjectInfo, len(stale))
	for _, key := range stale {
		objects <- minio.ObjectInfo{Key: key}
	}
	close(objects)

	for rerr := range a.client.RemoveObjects(ctx, a.bucket, objects, minio.RemoveObjectsOptions{}) {
		if rerr.Err != nil {
			return fmt.Errorf("failed to remove snapshot %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	a.logger.Debug("Pruned snapshots", zap.Int("removed", len(stale)))
	return nil
}
