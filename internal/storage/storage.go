package storage

import (
	"context"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Service stores todo snapshots in remote object storage. A Service is bound
// to a single bucket.
type Service interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error)
	ListObjects(ctx context.Context, prefix string) ([]ObjectInfo, error)
	DeletePrefix(ctx context.Context, prefix string) error
	GetObjectURL(ctx context.Context, key string, expires time.Duration) (string, error)
}
