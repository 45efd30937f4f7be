package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/krishkalaria12/snap-upload/config"
)

var ErrNotFound = errors.New("object not found")

// Storage persists files under slash-separated keys relative to the web root.
type Storage interface {
	// Save writes r under key, replacing any existing object.
	Save(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CleanKey normalizes a key: forward slashes, no leading slash, no "..".
func CleanKey(key string) (string, error) {
	key = strings.ReplaceAll(key, "\\", "/")
	cleaned := strings.TrimPrefix(path.Clean("/"+key), "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("empty storage key %q", key)
	}
	return cleaned, nil
}

// New picks the backend named by settings.StorageDriver.
func New(ctx context.Context, settings config.Settings) (Storage, error) {
	switch settings.StorageDriver {
	case "", "local":
		return NewLocal(settings.WebRoot), nil
	case "gcs":
		return NewGCS(ctx, settings.GCSProjectID, settings.GCSBucketName, settings.GCSCredentialsFile)
	case "s3":
		if settings.S3AccessKey != "" {
			if settings.S3Bucket == "" {
				return nil, errors.New("s3: bucket name is required")
			}
			return NewS3WithStaticCredentials(settings.S3Bucket, settings.S3Region, settings.S3Endpoint,
				settings.S3AccessKey, settings.S3SecretKey), nil
		}
		return NewS3(ctx, settings.S3Bucket, settings.S3Region, settings.S3Endpoint)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", settings.StorageDriver)
	}
}
