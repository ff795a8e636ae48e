// Package asset 将存储中的相对路径解析为已解码图片。
// 任何读取或解码失败都只体现在 Lookup.Status 上，不会向调用方返回错误。
package asset

import (
	"context"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"go.uber.org/zap"
)

// Status 是图片查找结果的标签。
type Status int

const (
	NotFound Status = iota
	Found
	DecodeError
)

func (s Status) String() string {
	switch s {
	case Found:
		return "found"
	case DecodeError:
		return "decode_error"
	default:
		return "not_found"
	}
}

// Lookup 是一次解析的结果；仅当 Status == Found 时 Image 非空。
type Lookup struct {
	Status Status
	Path   string
	Image  image.Image
	Err    error
}

// OK reports whether the lookup carries a drawable image.
func (l Lookup) OK() bool { return l.Status == Found && l.Image != nil }

// ErrNotExist 由 Source 返回，表示对象不存在。
var ErrNotExist = errors.New("asset: object does not exist")

// Source 按存储键打开原始字节流。
type Source interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// Resolver 从 Source 读取并解码图片。
type Resolver struct {
	src    Source
	logger *zap.Logger
}

// NewResolver creates a resolver reading from src.
func NewResolver(src Source, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{src: src, logger: logger.Named("asset")}
}

// Resolve 读取并解码 path；路径为空、对象缺失、读取失败都归为 NotFound，解码失败为 DecodeError。
func (r *Resolver) Resolve(ctx context.Context, path string) Lookup {
	if path == "" || r == nil || r.src == nil {
		return Lookup{Status: NotFound, Path: path}
	}
	rc, err := r.src.Open(ctx, path)
	if err != nil {
		if !errors.Is(err, ErrNotExist) {
			r.logger.Debug("asset read failed", zap.String("path", path), zap.Error(err))
		}
		return Lookup{Status: NotFound, Path: path, Err: err}
	}
	defer rc.Close()

	img, _, err := image.Decode(rc)
	if err != nil {
		r.logger.Debug("asset decode failed", zap.String("path", path), zap.Error(err))
		return Lookup{Status: DecodeError, Path: path, Err: err}
	}
	return Lookup{Status: Found, Path: path, Image: img}
}

// Provider 是 Resolver 与 Memo 共同实现的接口。
type Provider interface {
	Resolve(ctx context.Context, path string) Lookup
}

// Memo 在单次导出期间缓存解析结果，同一路径只读取一次。
type Memo struct {
	next  Provider
	mu    sync.Mutex
	cache map[string]Lookup
}

// NewMemo wraps next with a per-export cache. Do not share a Memo across exports.
func NewMemo(next Provider) *Memo {
	return &Memo{next: next, cache: map[string]Lookup{}}
}

func (m *Memo) Resolve(ctx context.Context, path string) Lookup {
	m.mu.Lock()
	if l, ok := m.cache[path]; ok {
		m.mu.Unlock()
		return l
	}
	m.mu.Unlock()

	l := m.next.Resolve(ctx, path)

	m.mu.Lock()
	m.cache[path] = l
	m.mu.Unlock()
	return l
}
