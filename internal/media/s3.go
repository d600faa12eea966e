package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dynasty-blog/dynasty/internal/domain"
)

// S3Config configures an S3-compatible bucket
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// PublicURL is the base for attachment links; defaults to the
	// path-style bucket URL on Endpoint
	PublicURL string
}

// S3Store keeps attachments in an S3-compatible bucket
type S3Store struct {
	cfg    S3Config
	client *minio.Client
}

// NewS3Store creates an S3 store
func NewS3Store(cfg S3Config) (*S3Store, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "http://"), "https://")
	cl, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	cfg.Endpoint = endpoint
	return &S3Store{cfg: cfg, client: cl}, nil
}

// EnsureBucket creates the bucket if it does not exist
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return storageError("bucket exists", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return storageError("make bucket", err)
		}
	}
	return nil
}

// Save uploads r as a new object
func (s *S3Store) Save(ctx context.Context, kind domain.AttachmentKind, filename, contentType string, r io.Reader, size int64) (string, error) {
	key := objectKey(kind, filename)
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, r, size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", storageError("put object", err)
	}
	return key, nil
}

// Remove deletes the object behind ref
func (s *S3Store) Remove(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.cfg.Bucket, ref, minio.RemoveObjectOptions{}); err != nil {
		return storageError("remove object", err)
	}
	return nil
}

// URL returns the public URL of ref
func (s *S3Store) URL(ref string) string {
	if ref == "" {
		return ""
	}
	if s.cfg.PublicURL != "" {
		return joinURL(s.cfg.PublicURL, ref)
	}
	scheme := "http"
	if s.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.cfg.Endpoint, s.cfg.Bucket, ref)
}

// Name returns "s3"
func (s *S3Store) Name() string {
	return "s3"
}
