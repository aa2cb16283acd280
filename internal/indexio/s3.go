package indexio

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"sentinel/internal/retry"
)

// S3Options carries explicit transport parameters for object storage.
// Credentials are always passed here; the store never reads them from the
// process environment.
type S3Options struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	UseSSL          bool
}

// S3Store is the object-storage BlobStore, addressed with s3://bucket/key
// URIs.
type S3Store struct {
	client *minio.Client
}

const (
	uploadAttempts    = 3
	uploadBackoffBase = time.Second
)

// NewS3Store creates an S3-compatible blob store from explicit options.
func NewS3Store(opts S3Options) (*S3Store, error) {
	if opts.Endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint required")
	}
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &S3Store{client: client}, nil
}

func (s *S3Store) Upload(ctx context.Context, path string, r io.Reader) error {
	bucket, key, err := splitS3Path(path)
	if err != nil {
		return err
	}
	// Retrying needs a rewindable body; one-shot readers get one attempt.
	seeker, canSeek := r.(io.Seeker)
	attempts := uploadAttempts
	if !canSeek {
		attempts = 1
	}
	return retry.Do(ctx, attempts, uploadBackoffBase, func() error {
		if canSeek {
			if _, seekErr := seeker.Seek(0, io.SeekStart); seekErr != nil {
				return seekErr
			}
		}
		_, putErr := s.client.PutObject(ctx, bucket, key, r, -1, minio.PutObjectOptions{})
		return putErr
	})
}

func (s *S3Store) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	bucket, key, err := splitS3Path(path)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	// GetObject is lazy; Stat forces the request so a missing key surfaces
	// here instead of on first read.
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return obj, nil
}

func splitS3Path(path string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(path, s3Scheme)
	if !ok {
		return "", "", fmt.Errorf("not an s3 path: %s", path)
	}
	bucket, key, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 path missing bucket or key: %s", path)
	}
	return bucket, key, nil
}
