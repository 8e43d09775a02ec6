// Package modelstore fetches model artifacts from object storage to local
// disk. Model URIs of the form s3://bucket/key are downloaded into a scratch
// directory; plain paths pass through untouched.
package modelstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store wraps a minio client and a scratch directory for downloads.
type Store struct {
	client  *minio.Client
	scratch string
}

// New creates a store. Endpoint and credentials follow the usual S3
// conventions; secure selects TLS.
func New(endpoint, accessKey, secretKey, scratch string, secure bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir %s: %w", scratch, err)
	}
	return &Store{client: client, scratch: scratch}, nil
}

// Fetch resolves a model URI to a local path, downloading when needed.
// Already-downloaded artifacts are reused.
func (s *Store) Fetch(ctx context.Context, uri string) (string, error) {
	if !strings.HasPrefix(uri, "s3://") {
		return uri, nil
	}

	bucket, key, err := splitURI(uri)
	if err != nil {
		return "", err
	}

	local := filepath.Join(s.scratch, filepath.Base(key))
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}

	if err := s.client.FGetObject(ctx, bucket, key, local, minio.GetObjectOptions{}); err != nil {
		return "", fmt.Errorf("failed to download %s: %w", uri, err)
	}
	return local, nil
}

func splitURI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed model URI %q, expected s3://bucket/key", uri)
	}
	return parts[0], parts[1], nil
}
