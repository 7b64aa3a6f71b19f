package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Store is the capability set the HTTP layer needs from a bucket.
type Store interface {
	// Put creates or overwrites the object at key.
	Put(ctx context.Context, key string, data []byte) error
	// List returns the objects in the bucket in backend order. Results the
	// backend truncates are passed through as-is.
	List(ctx context.Context) ([]Object, error)
	// Delete removes key. It fails with ErrNotFound when key does not exist.
	Delete(ctx context.Context, key string) error
	// SignedURL returns a pre-authorized GET URL for key valid for ttl.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Ping checks that the bucket is reachable.
	Ping(ctx context.Context) error
}

// Object is a read-only view of one stored object. Field names follow the
// S3 listing shape so the browser can use them unchanged.
type Object struct {
	Key          string    `json:"Key"`
	Size         int64     `json:"Size"`
	LastModified time.Time `json:"LastModified"`
	ETag         string    `json:"ETag,omitempty"`
	StorageClass string    `json:"StorageClass,omitempty"`
}

// IsDir reports whether the object is a directory placeholder.
func (o Object) IsDir() bool {
	return strings.HasSuffix(o.Key, "/")
}

// Driver names accepted by Open.
const (
	DriverS3    = "s3"
	DriverMinio = "minio"
)

// listPageSize caps List at one ListObjectsV2 page for every driver.
const listPageSize = 1000

// Config selects and configures a driver.
type Config struct {
	Driver         string
	Bucket         string
	Region         string
	AccessKey      string
	SecretKey      string
	Endpoint       string // optional for s3, required for minio
	ForcePathStyle bool
}

// Open builds the Store for cfg.Driver and verifies the bucket is reachable.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case DriverS3, "":
		st, err = NewS3(ctx, cfg)
	case DriverMinio:
		st, err = NewMinio(cfg)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if err := st.Ping(ctx); err != nil {
		return nil, err
	}
	return st, nil
}
