package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalAdapter implements the Adapter interface for local filesystem.
// PutOptions metadata is ignored; the local adapter exists for development
// and tests where no CDN sits in front of the files.
type LocalAdapter struct {
	basePath string
}

// NewLocalAdapter creates a new local filesystem adapter
func NewLocalAdapter(basePath string) (*LocalAdapter, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	return &LocalAdapter{
		basePath: basePath,
	}, nil
}

// Put stores data at the given key
func (l *LocalAdapter) Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error {
	fullPath := l.fullPath(key)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	return nil
}

// Get retrieves data from the given key
func (l *LocalAdapter) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath := l.fullPath(key)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

// Delete removes data at the given key
func (l *LocalAdapter) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.fullPath(key)); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

// Exists checks if data exists at the given key
func (l *LocalAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(l.fullPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return true, nil
}

// List returns keys matching the given prefix
func (l *LocalAdapter) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := l.fullPath(prefix)
	var keys []string

	err := filepath.Walk(l.basePath, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if strings.HasPrefix(p, fullPrefix) {
			relPath, err := filepath.Rel(l.basePath, p)
			if err != nil {
				return err
			}
			keys = append(keys, filepath.ToSlash(relPath))
		}
		return nil
	})

	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return keys, nil
}

// Close cleans up any resources
func (l *LocalAdapter) Close() error {
	return nil
}

// fullPath returns the full filesystem path for a key
func (l *LocalAdapter) fullPath(key string) string {
	return filepath.Join(l.basePath, filepath.FromSlash(key))
}
