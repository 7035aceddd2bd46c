package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gorefurbish/backend/internal/config"
)

// MediaService stores product images in an S3-compatible bucket and hands
// back public URLs.
type MediaService struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMediaService connects to the object store and ensures the bucket exists
func NewMediaService(ctx context.Context, cfg config.Media) (*MediaService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create media client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s", scheme, cfg.Endpoint)
	}

	s := &MediaService{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicURL,
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("✅ Created media bucket %s", cfg.Bucket)
	}

	return s, nil
}

// UploadImage stores one image under a random object name, keeping the
// original extension, and returns its public URL.
func (s *MediaService) UploadImage(ctx context.Context, folder, filename string, r io.Reader, size int64, contentType string) (string, error) {
	objectName := path.Join(folder, uuid.NewString()+path.Ext(filename))

	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, objectName), nil
}

// DeleteImage removes an uploaded object by its URL. Used to roll back a
// partially uploaded product.
func (s *MediaService) DeleteImage(ctx context.Context, url string) {
	prefix := fmt.Sprintf("%s/%s/", s.publicURL, s.bucket)
	if len(url) <= len(prefix) || url[:len(prefix)] != prefix {
		return
	}
	objectName := url[len(prefix):]

	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		log.Printf("❌ Failed to delete image %s: %v", objectName, err)
	}
}
