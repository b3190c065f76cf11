package filestore

import (
	"context"
	"errors"
	"fmt"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore stores attachments as objects under one prefix of a Cloud Storage
// bucket. The storage key is the object name.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS creates a bucket-backed store. prefix may be empty for the bucket
// root.
func NewGCS(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*GCSStore, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("filestore: create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Close releases the underlying client.
func (g *GCSStore) Close() error {
	return g.client.Close()
}

// Upload writes the bytes to the bucket and returns the object name. The
// writer Close finalizes the upload; the object exists once Close returns.
func (g *GCSStore) Upload(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	objectName := g.objectName(filename)

	w := g.client.Bucket(g.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = mimeType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs upload %q: write: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs upload %q: finalize: %w", objectName, err)
	}

	return objectName, nil
}

// Delete removes the object. An object that is already gone counts as
// deleted.
func (g *GCSStore) Delete(ctx context.Context, key string) error {
	err := g.client.Bucket(g.bucket).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete %q: %w", key, err)
	}
	return nil
}

func (g *GCSStore) objectName(filename string) string {
	if g.prefix == "" {
		return filename
	}
	return path.Join(g.prefix, filename)
}

var _ Store = (*GCSStore)(nil)
