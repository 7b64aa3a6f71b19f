package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements Store with minio-go against any S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
	bucket string
}

func normaliseEndpoint(raw string) (endpoint string, secure bool, err error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("empty endpoint")
	}

	// Accept either "minio:9000" or "http://minio:9000" / "https://minio:9000".
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", false, err
		}
		if u.Host == "" {
			return "", false, fmt.Errorf("invalid endpoint")
		}
		if u.Path != "" && u.Path != "/" {
			return "", false, fmt.Errorf("endpoint must not contain a path")
		}
		secure = (u.Scheme == "https")
		return u.Host, secure, nil
	}

	// No scheme provided, treat as host:port (insecure by default for local MinIO).
	return raw, false, nil
}

// NewMinio creates a MinIO-backed store. It does not contact the server.
func NewMinio(cfg Config) (*MinioStore, error) {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("minio configuration incomplete")
	}

	endpoint, secure, err := normaliseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:      credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:     secure,
		Region:     cfg.Region,
		MaxRetries: 1,
	})
	if err != nil {
		return nil, err
	}

	return &MinioStore{client: client, bucket: cfg.Bucket}, nil
}

// Put uploads data as a single object.
func (m *MinioStore) Put(ctx context.Context, key string, data []byte) error {
	_, err := m.client.PutObject(
		ctx,
		m.bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType(key, data)},
	)
	if err != nil {
		return newError("put", key, err)
	}
	return nil
}

// List reads the bucket recursively so directory placeholders show up as
// keys, the same as a flat S3 listing. Like the S3 driver it returns at most
// one page.
func (m *MinioStore) List(ctx context.Context) ([]Object, error) {
	objects := make([]Object, 0)
	opts := minio.ListObjectsOptions{Recursive: true, MaxKeys: listPageSize}
	for info := range m.client.ListObjectsIter(ctx, m.bucket, opts) {
		if info.Err != nil {
			return nil, newError("list", "", info.Err)
		}
		objects = append(objects, Object{
			Key:          info.Key,
			Size:         info.Size,
			LastModified: info.LastModified,
			ETag:         info.ETag,
			StorageClass: info.StorageClass,
		})
		if len(objects) == listPageSize {
			break
		}
	}
	return objects, nil
}

// Delete stats key first: RemoveObject reports success for missing keys.
func (m *MinioStore) Delete(ctx context.Context, key string) error {
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		resp := minio.ToErrorResponse(err)
		if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
			if resp.Message == "" {
				return newNotFound("delete", key, errNoSuchKey)
			}
			return newNotFound("delete", key, err)
		}
		return newError("delete", key, err)
	}

	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return newError("delete", key, err)
	}
	return nil
}

// SignedURL presigns a GET for key.
func (m *MinioStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := m.client.PresignedGetObject(ctx, m.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", newError("sign", key, err)
	}
	return u.String(), nil
}

// Ping checks the bucket exists.
func (m *MinioStore) Ping(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return newError("ping", "", err)
	}
	if !exists {
		return newError("ping", "", fmt.Errorf("bucket does not exist: %s", m.bucket))
	}
	return nil
}
