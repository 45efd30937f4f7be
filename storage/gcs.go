package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const gcsTimeout = 50 * time.Second

// GCS stores files as objects in a Google Cloud Storage bucket.
type GCS struct {
	cl         *storage.Client
	projectID  string
	bucketName string
}

func NewGCS(ctx context.Context, projectID, bucketName, credentialsFile string) (*GCS, error) {
	if bucketName == "" {
		return nil, errors.New("gcs: bucket name is required")
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: create client: %w", err)
	}

	return &GCS{
		cl:         client,
		projectID:  projectID,
		bucketName: bucketName,
	}, nil
}

func (g *GCS) object(key string) (*storage.ObjectHandle, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	return g.cl.Bucket(g.bucketName).Object(cleaned), nil
}

func (g *GCS) Save(ctx context.Context, key string, r io.Reader) error {
	obj, err := g.object(key)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, gcsTimeout)
	defer cancel()

	wc := obj.NewWriter(ctx)
	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return fmt.Errorf("io.Copy: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("Writer.Close: %w", err)
	}
	return nil
}

func (g *GCS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := g.object(key)
	if err != nil {
		return nil, err
	}

	rc, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return rc, err
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	obj, err := g.object(key)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, gcsTimeout)
	defer cancel()

	if err := obj.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs: delete %s: %w", key, err)
	}
	return nil
}

func (g *GCS) Exists(ctx context.Context, key string) (bool, error) {
	obj, err := g.object(key)
	if err != nil {
		return false, err
	}

	_, err = obj.Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("gcs: stat %s: %w", key, err)
	}
	return true, nil
}
