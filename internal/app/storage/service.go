/*
Package storage provides access to dish images kept in S3-compatible object storage.

Images are never proxied through the server; clients are redirected to short-lived presigned URLs.
*/
package storage

import (
	"context"
	"errors"
	"time"

	"menupoll/internal/configs"
)

// ImageURLDuration is how long a presigned dish image URL stays valid.
const ImageURLDuration = 15 * time.Minute

// ErrDisabled is returned by the disabled service when no storage is configured.
var ErrDisabled = errors.New("image storage is not configured")

// ServiceConfig holds the configuration required to connect to the storage service.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// ImageService defines the public interface for the dish image storage.
type ImageService interface {
	// PresignImage generates a pre-signed download URL for the image stored under key.
	PresignImage(ctx context.Context, key string, duration time.Duration) (string, error)
}

// NewImageService is the factory function for ImageService.
// It returns a disabled implementation when the configuration lacks S3 settings.
func NewImageService(ctx context.Context, cfg *configs.AppConfig) (ImageService, error) {
	if !cfg.StorageEnabled() {
		return disabled{}, nil
	}

	return newS3Client(ctx, ServiceConfig{
		S3BucketName:      cfg.S3BucketName,
		S3Endpoint:        cfg.S3Endpoint,
		S3AccessKeyID:     cfg.S3AccessKeyID,
		S3SecretAccessKey: cfg.S3SecretAccessKey,
	})
}

type disabled struct{}

func (disabled) PresignImage(context.Context, string, time.Duration) (string, error) {
	return "", ErrDisabled
}
