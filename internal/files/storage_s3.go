package files

import (
	"context"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"printdrop/internal/logging"
)

// S3Storage implements Storage using any S3-compatible object store.
type S3Storage struct {
	client    *minio.Client
	bucket    string
	prefix    string
	publicURL string // Base URL for public access (e.g., "https://cdn.example.com/printdrop")
}

// S3Config holds configuration for S3-compatible storage.
type S3Config struct {
	Endpoint  string // S3_ENDPOINT
	KeyID     string // S3_KEY_ID
	AppKey    string // S3_APP_KEY
	Bucket    string // S3_BUCKET
	Prefix    string // S3_PREFIX - optional folder prefix for all objects
	PublicURL string // S3_PUBLIC_URL - base URL for public access (enables direct downloads)
}

// NewS3Storage creates a new object-store-backed storage.
func NewS3Storage(cfg S3Config) (*S3Storage, error) {
	logging.S3.Printf("initializing storage (bucket=%s, prefix=%s, endpoint=%s)", cfg.Bucket, cfg.Prefix, cfg.Endpoint)

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.KeyID, cfg.AppKey, ""),
		Secure: true,
	})
	if err != nil {
		logging.S3.Printf("failed to create client: %v", err)
		return nil, err
	}

	if cfg.PublicURL != "" {
		logging.S3.Printf("public URL configured: %s", cfg.PublicURL)
	}

	logging.S3.Printf("storage initialized successfully")
	return &S3Storage{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		publicURL: cfg.PublicURL,
	}, nil
}

func (s *S3Storage) key(id string) string {
	if s.prefix == "" {
		return id
	}
	return path.Join(s.prefix, id)
}

func (s *S3Storage) Save(ctx context.Context, id string, contentType string, data io.Reader, size int64) (int64, error) {
	key := s.key(id)
	logging.S3.Printf("uploading file %s to bucket %s", key, s.bucket)

	info, err := s.client.PutObject(ctx, s.bucket, key, data, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logging.S3.Printf("upload failed for %s: %v", key, err)
		return 0, err
	}

	logging.S3.Printf("uploaded %s successfully (%d bytes)", key, info.Size)
	return info.Size, nil
}

func (s *S3Storage) Load(ctx context.Context, id string) (io.ReadCloser, error) {
	key := s.key(id)
	logging.S3.Printf("loading file %s from bucket %s", key, s.bucket)

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		logging.S3.Printf("failed to get object %s: %v", key, err)
		return nil, err
	}

	// Check if object exists by attempting to stat it
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			logging.S3.Printf("file %s not found", key)
			return nil, ErrNotFound
		}
		logging.S3.Printf("failed to stat object %s: %v", key, err)
		return nil, err
	}

	logging.S3.Printf("loaded %s successfully (%d bytes)", key, stat.Size)
	return obj, nil
}

func (s *S3Storage) Delete(ctx context.Context, id string) error {
	key := s.key(id)
	logging.S3.Printf("deleting file %s from bucket %s", key, s.bucket)

	err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" {
			logging.S3.Printf("file %s not found for deletion", key)
			return ErrNotFound
		}
		logging.S3.Printf("failed to delete %s: %v", key, err)
		return err
	}

	logging.S3.Printf("deleted %s successfully", key)
	return nil
}

// GetPublicURL returns the public URL for a file if public access is configured.
// Returns empty string if public URL is not configured.
func (s *S3Storage) GetPublicURL(id string) string {
	if s.publicURL == "" {
		return ""
	}
	key := s.key(id)
	if s.publicURL[len(s.publicURL)-1] == '/' {
		return s.publicURL + key
	}
	return s.publicURL + "/" + key
}
