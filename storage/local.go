package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// LocalStore stores objects under a base directory on the local file system.
type LocalStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(baseDir string, logger *zap.Logger) (*LocalStore, error) {
	if baseDir == "" {
		return nil, errors.New("storage base directory is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir, logger: logger.Named("storage.local")}, nil
}

// BaseDir returns the root directory, used for static file serving.
func (s *LocalStore) BaseDir() string { return s.baseDir }

func (s *LocalStore) fullPath(key string) (string, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

// Save writes to a temporary file first and renames it into place.
func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader, contentType string) error {
	full, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	size, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write object: %w", errors.Join(copyErr, closeErr))
	}
	if err := os.Rename(tmpName, full); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to move object into place: %w", err)
	}
	s.logger.Debug("object stored",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int64("size", size),
	)
	return nil
}

// Delete removes the file for key.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	full, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	s.logger.Debug("object deleted", zap.String("key", key))
	return nil
}

// Open returns ErrNotFound when the key does not exist or is invalid.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := s.fullPath(key)
	if err != nil {
		return nil, ErrNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	info, err := f.Stat()
	if err == nil && info.IsDir() {
		f.Close()
		return nil, ErrNotFound
	}
	return f, nil
}
