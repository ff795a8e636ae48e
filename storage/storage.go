// Package storage provides the upload sink for registration photos and the
// byte source the asset resolver reads from.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/ByLCY/eventpass/asset"
	"github.com/ByLCY/eventpass/config"
)

// ErrNotFound wraps asset.ErrNotExist so the resolver can classify misses.
var ErrNotFound = fmt.Errorf("storage: object not found: %w", asset.ErrNotExist)

// ErrInvalidKey is returned for empty keys or keys escaping the storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// Store saves and opens objects by relative key (e.g. "photos/<uuid>.jpg").
type Store interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the object; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

var (
	_ Store = (*LocalStore)(nil)
	_ Store = (*S3Store)(nil)
)

// CleanKey normalizes a relative key and rejects absolute or parent-escaping paths.
func CleanKey(key string) (string, error) {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	if key == "" || strings.HasPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}

// New 按配置创建本地或 S3 存储。
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "local":
		s, err := NewLocalStore(cfg.BaseDir, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "s3":
		s, err := NewS3Store(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}
