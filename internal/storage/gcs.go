package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSConfig captures the parameters required to publish to a GCS bucket.
type GCSConfig struct {
	Bucket string
	// CDNHost, when set, is used to build public URLs instead of the
	// storage.googleapis.com form.
	CDNHost string
}

// GCSStore implements ObjectStore on a Google Cloud Storage bucket.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	cdnHost string
}

// NewGCSStore creates a GCS-backed store and verifies bucket access so
// misconfiguration fails at startup rather than mid-run.
func NewGCSStore(ctx context.Context, client *storage.Client, cfg GCSConfig) (*GCSStore, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		return nil, fmt.Errorf("get bucket %q attributes: %w", cfg.Bucket, err)
	}
	return &GCSStore{
		client:  client,
		bucket:  cfg.Bucket,
		cdnHost: cfg.CDNHost,
	}, nil
}

// Upload writes data to the bucket and returns the public URL. When forced
// is false and the object already exists, the write is skipped.
func (s *GCSStore) Upload(ctx context.Context, name, contentType string, data []byte, forced bool) (string, error) {
	obj := s.client.Bucket(s.bucket).Object(name)

	if !forced {
		_, err := obj.Attrs(ctx)
		switch {
		case err == nil:
			return s.publicURL(name), nil
		case errors.Is(err, storage.ErrObjectNotExist):
			// fall through to the write
		default:
			return "", fmt.Errorf("check object %s: %w", name, err)
		}
	}

	writer := obj.NewWriter(ctx)
	if contentType != "" {
		writer.ContentType = contentType
	}
	if _, err := writer.Write(data); err != nil {
		closeErr := writer.Close()
		if closeErr != nil {
			return "", fmt.Errorf("write object %s: %w (close writer: %v)", name, err, closeErr)
		}
		return "", fmt.Errorf("write object %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer for %s: %w", name, err)
	}

	return s.publicURL(name), nil
}

// LatestMatching scans the prefix and returns the most recently updated
// object's name and content.
func (s *GCSStore) LatestMatching(ctx context.Context, prefix string) (string, []byte, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var latest *storage.ObjectAttrs
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return "", nil, fmt.Errorf("list objects with prefix %q: %w", prefix, err)
		}
		if latest == nil || attrs.Updated.After(latest.Updated) {
			latest = attrs
		}
	}
	if latest == nil {
		return "", nil, nil
	}

	reader, err := s.client.Bucket(s.bucket).Object(latest.Name).NewReader(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("open object %s: %w", latest.Name, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, fmt.Errorf("read object %s: %w", latest.Name, err)
	}
	return latest.Name, data, nil
}

func (s *GCSStore) publicURL(name string) string {
	if s.cdnHost != "" {
		return fmt.Sprintf("https://%s/%s", s.cdnHost, name)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name)
}
