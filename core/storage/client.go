package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"roster-sync/core/remote"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Client is the subset of object storage operations roster exports need.
type Client interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	// GetObject returns the object body. The caller closes it.
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
}

// Timeout returns the connection timeout, defaulting to 30 seconds.
func (c Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// splitEndpoint strips a scheme from endpoint. An https scheme forces TLS.
func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), useSSL
	default:
		return endpoint, useSSL
	}
}

// NewClient creates a MinIO client for cfg. No request is made until the
// first operation.
func NewClient(cfg Config) (Client, error) {
	endpoint, secure := splitEndpoint(strings.TrimSuffix(cfg.Endpoint, "/"), cfg.UseSSL)
	if endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is empty")
	}

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    secure,
		Region:    cfg.Region,
		Transport: remote.NewTransport(cfg.Timeout(), 16),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return objectStore{mc}, nil
}

// objectStore narrows GetObject to io.ReadCloser so it can be mocked.
type objectStore struct {
	*minio.Client
}

func (s objectStore) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	return s.Client.GetObject(ctx, bucketName, objectName, opts)
}
