package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/book-expert/text-speech/internal/core"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioObjectStore implements core.ObjectStore for S3-compatible servers.
type MinioObjectStore struct {
	client *minio.Client
}

// NewMinioObjectStore connects to endpoint (host[:port], no scheme).
func NewMinioObjectStore(endpoint, accessKey, secretKey, region string, useSSL bool) (*MinioObjectStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init minio client for '%s': %w", endpoint, err)
	}

	return &MinioObjectStore{client: client}, nil
}

// GetObject downloads the whole object.
func (m *MinioObjectStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, bucket, err)
	}
	defer obj.Close()

	// minio defers request errors until the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read object '%s' from bucket '%s': %w", key, bucket, err)
	}

	return data, nil
}

// PutObject uploads obj with its content type and user metadata.
func (m *MinioObjectStore) PutObject(ctx context.Context, bucket string, obj core.Object) error {
	_, err := m.client.PutObject(
		ctx,
		bucket,
		obj.Key,
		bytes.NewReader(obj.Body),
		int64(len(obj.Body)),
		minio.PutObjectOptions{
			ContentType:  obj.ContentType,
			UserMetadata: obj.Metadata,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", obj.Key, bucket, err)
	}

	return nil
}
