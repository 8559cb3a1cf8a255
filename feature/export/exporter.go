package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"roster-sync/core/reconcile"
	"roster-sync/core/storage"
	"roster-sync/feature/players/models"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// ObjectName is the file name of the roster export under the prefix.
const ObjectName = "players.json"

// ErrNoExport is returned by Latest when nothing has been exported yet.
var ErrNoExport = errors.New("no roster export found")

// Document is the JSON written to object storage.
type Document struct {
	Version    uint64          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	Players    []models.Player `json:"players"`
}

// Exporter writes roster views to object storage.
type Exporter struct {
	client storage.Client
	bucket string
	key    string
	logger *zap.Logger
	now    func() time.Time

	mu          sync.Mutex
	bucketReady bool
	lastVersion uint64
}

// NewExporter creates an exporter writing to {bucket}/{prefix}/players.json.
func NewExporter(client storage.Client, bucket, prefix string, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{
		client: client,
		bucket: bucket,
		key:    path.Join(prefix, ObjectName),
		logger: logger,
		now:    time.Now,
	}
}

// Key returns the object key exports are written to.
func (e *Exporter) Key() string {
	return e.key
}

// Export uploads the entities of view.
func (e *Exporter) Export(ctx context.Context, view reconcile.View[models.Player]) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureBucket(ctx); err != nil {
		return err
	}

	players := view.Entities
	if players == nil {
		players = []models.Player{}
	}
	data, err := json.Marshal(Document{
		Version:    view.Version,
		ExportedAt: e.now().UTC(),
		Players:    players,
	})
	if err != nil {
		return fmt.Errorf("failed to encode roster: %w", err)
	}

	_, err = e.client.PutObject(ctx, e.bucket, e.key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload roster to %s/%s: %w", e.bucket, e.key, err)
	}

	e.lastVersion = view.Version
	e.logger.Info("Roster exported",
		zap.String("object", e.bucket+"/"+e.key),
		zap.Int("players", len(players)),
		zap.Uint64("version", view.Version))
	return nil
}

// Latest reads back the most recent export.
func (e *Exporter) Latest(ctx context.Context) (*Document, error) {
	obj, err := e.client.GetObject(ctx, e.bucket, e.key, minio.GetObjectOptions{})
	if err != nil {
		return nil, e.readError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, e.readError(err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode roster export: %w", err)
	}
	return &doc, nil
}

// Follow exports every settled view received on views until ctx ends or the
// channel closes. Views still loading, and views not newer than the last
// export (including the initial empty view), are skipped. Upload failures are logged and do not stop following.
func (e *Exporter) Follow(ctx context.Context, views <-chan reconcile.View[models.Player]) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case view, ok := <-views:
			if !ok {
				return nil
			}
			if view.Loading || !e.isNewer(view.Version) {
				continue
			}
			if err := e.Export(ctx, view); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.logger.Warn("Roster export failed", zap.Error(err))
			}
		}
	}
}

func (e *Exporter) isNewer(version uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return version > e.lastVersion
}

func (e *Exporter) ensureBucket(ctx context.Context) error {
	if e.bucketReady {
		return nil
	}
	exists, err := e.client.BucketExists(ctx, e.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", e.bucket, err)
	}
	if !exists {
		if err := e.client.MakeBucket(ctx, e.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", e.bucket, err)
		}
		e.logger.Info("Created export bucket", zap.String("bucket", e.bucket))
	}
	e.bucketReady = true
	return nil
}

func (e *Exporter) readError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrNoExport
	}
	return fmt.Errorf("failed to read roster export: %w", err)
}
