package indexio

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

const s3Scheme = "s3://"

// BlobStore moves whole objects between the index and a storage backend.
// Paths are backend-native: filesystem paths for the local store, s3://
// URIs for the object store. Download returning a nil ReadCloser means the
// object does not exist.
type BlobStore interface {
	Upload(ctx context.Context, path string, r io.Reader) error
	Download(ctx context.Context, path string) (io.ReadCloser, error)
}

// JoinPath appends a filename to a base path, handling both filesystem
// paths and s3:// URIs.
func JoinPath(base, name string) string {
	if strings.HasPrefix(base, s3Scheme) {
		return strings.TrimSuffix(base, "/") + "/" + name
	}
	return filepath.Join(base, name)
}

// IsRemote reports whether path addresses object storage.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, s3Scheme)
}
