package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File stores each key as one file inside a directory.
type File struct {
	dir string
}

// NewFile returns a file backend rooted at dir. The directory is created on
// first write.
func NewFile(dir string) (*File, error) {
	if dir == "" {
		return nil, fmt.Errorf("file backend requires a directory")
	}
	return &File{dir: dir}, nil
}

// Dir returns the directory the backend writes into.
func (f *File) Dir() string {
	return f.dir
}

// Path returns the file that holds key.
func (f *File) Path(key string) string {
	return filepath.Join(f.dir, key)
}

func (f *File) checkKey(key string) error {
	if err := validateKey(key); err != nil {
		return err
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("invalid storage key for file backend: %q", key)
	}
	return nil
}

func (f *File) Get(ctx context.Context, key string) ([]byte, error) {
	if err := f.checkKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

// Put writes value to disk. ttl is ignored.
func (f *File) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := f.checkKey(key); err != nil {
		return err
	}
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}
	if err := os.WriteFile(f.Path(key), value, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (f *File) Delete(ctx context.Context, key string) error {
	if err := f.checkKey(key); err != nil {
		return err
	}
	if err := os.Remove(f.Path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (f *File) Close() error { return nil }
