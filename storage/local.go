package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Local stores files below Root on the local filesystem.
type Local struct {
	Root string
}

func NewLocal(root string) *Local {
	return &Local{Root: root}
}

func (l *Local) path(key string) (string, error) {
	cleaned, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.Root, filepath.FromSlash(cleaned)), nil
}

func (l *Local) Save(ctx context.Context, key string, r io.Reader) error {
	filePath, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	dst, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(filePath)
		return fmt.Errorf("write file: %w", err)
	}

	return dst.Close()
}

func (l *Local) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	filePath, err := l.path(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return f, err
}

func (l *Local) Delete(ctx context.Context, key string) error {
	filePath, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

func (l *Local) Exists(ctx context.Context, key string) (bool, error) {
	filePath, err := l.path(key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
