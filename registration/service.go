package registration

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PhotoSink 保存上传的照片；落库失败时用 Delete 回收已保存的照片。
type PhotoSink interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}

// Photo 是一次上传中的照片文件。
type Photo struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Service 串联校验、照片存储与落库。
type Service struct {
	repo   Repository
	photos PhotoSink
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a registration service.
func NewService(repo Repository, photos PhotoSink, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, photos: photos, logger: logger.Named("registration"), now: time.Now}
}

// Register 校验草稿，先保存照片（如有），再写入存储。
func (s *Service) Register(ctx context.Context, d Draft, photo *Photo) (Record, error) {
	rec, err := NewRecord(d, s.now())
	if err != nil {
		return Record{}, err
	}
	if photo != nil && photo.Body != nil {
		key := PhotoKey(photo.Filename, photo.ContentType)
		if err := s.photos.Save(ctx, key, photo.Body, photo.ContentType); err != nil {
			return Record{}, fmt.Errorf("保存照片失败: %w", err)
		}
		rec.PhotoPath = key
	}
	if err := s.repo.Create(ctx, &rec); err != nil {
		if rec.HasPhoto() {
			s.discardPhoto(ctx, rec.PhotoPath)
		}
		return Record{}, fmt.Errorf("写入登记失败: %w", err)
	}
	s.logger.Info("registration created",
		zap.String("id", rec.ID),
		zap.Bool("has_photo", rec.HasPhoto()),
	)
	return rec, nil
}

// discardPhoto 尽力删除未能关联到记录的照片，失败只记日志。
func (s *Service) discardPhoto(ctx context.Context, key string) {
	if err := s.photos.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn("failed to remove orphaned photo", zap.String("key", key), zap.Error(err))
	}
}

// List 返回完整快照。
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.repo.ListAll(ctx)
}

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// PhotoKey 生成 photos/<uuid><ext> 形式的存储路径，扩展名优先取自原文件名。
func PhotoKey(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
	default:
		ext = extByContentType[strings.ToLower(contentType)]
	}
	return "photos/" + uuid.NewString() + ext
}

// AllowedPhotoType 判断上传的 Content-Type 是否可作为照片。
func AllowedPhotoType(contentType string) bool {
	_, ok := extByContentType[strings.ToLower(strings.TrimSpace(contentType))]
	return ok
}
