// Package export 读取登记快照，排版并渲染为登记表或胸卡 PDF。
package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ByLCY/eventpass/asset"
	"github.com/ByLCY/eventpass/config"
	"github.com/ByLCY/eventpass/layout"
	"github.com/ByLCY/eventpass/registration"
	"github.com/ByLCY/eventpass/renderer"
)

var (
	// ErrSnapshot 表示读取登记快照失败。
	ErrSnapshot = errors.New("export: snapshot read failed")
	// ErrRender 表示排版或 PDF 写出失败。
	ErrRender = errors.New("export: render failed")
	// ErrUnknownKind is returned by ParseKind.
	ErrUnknownKind = errors.New("export: unknown kind")
)

// Kind 是导出文档的类型。
type Kind string

const (
	KindTable Kind = "table"
	KindCards Kind = "cards"
)

// ParseKind accepts "table" / "registrations" and "cards" / "idcards".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "table", "registrations":
		return KindTable, nil
	case "cards", "idcards":
		return KindCards, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Filename 返回下载时使用的文件名。
func (k Kind) Filename() string {
	if k == KindCards {
		return "idcards.pdf"
	}
	return "registrations.pdf"
}

// PDFRenderer 同时负责文本排版与 PDF 输出。
type PDFRenderer interface {
	renderer.Renderer
	layout.Typesetter
}

// Service 编排一次导出：读快照、排版、渲染。各次导出之间不共享可变状态。
type Service struct {
	repo     registration.Repository
	assets   asset.Provider
	renderer PDFRenderer
	table    layout.TableConfig
	cards    layout.CardConfig
	fonts    map[string]string
	metrics  *Metrics
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithEvent 使用活动信息填充登记表标题块。
func WithEvent(ev config.EventConfig) Option {
	return func(s *Service) {
		s.table.Title = layout.Title{
			Organization: ev.Organization,
			Event:        ev.Name,
			Section:      ev.Section,
		}
	}
}

// WithFonts 用配置的字体文件替换内置字体；路径由渲染器按其字体目录解析。
func WithFonts(fc config.FontsConfig) Option {
	return func(s *Service) {
		s.fonts = map[string]string{
			layout.FontBody:   fc.Body,
			layout.FontBold:   fc.Bold,
			layout.FontItalic: fc.Italic,
		}
	}
}

// WithTableConfig overrides the registration table layout.
func WithTableConfig(cfg layout.TableConfig) Option {
	return func(s *Service) { s.table = cfg }
}

// WithCardConfig overrides the ID card layout.
func WithCardConfig(cfg layout.CardConfig) Option {
	return func(s *Service) { s.cards = cfg }
}

// WithMetrics enables prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates an export service. assets 可以为 nil，此时所有照片都绘制占位。
func NewService(repo registration.Repository, assets asset.Provider, r PDFRenderer, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:     repo,
		assets:   assets,
		renderer: r,
		table:    layout.DefaultTableConfig(),
		cards:    layout.DefaultCardConfig(),
		logger:   logger.Named("export"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegistrationTable 导出 A4 登记表。
func (s *Service) RegistrationTable(ctx context.Context) ([]byte, error) {
	return s.Export(ctx, KindTable)
}

// IDCards 导出 A3 胸卡网格。
func (s *Service) IDCards(ctx context.Context) ([]byte, error) {
	return s.Export(ctx, KindCards)
}

// Export 生成完整 PDF；任一步失败都不返回部分内容。
func (s *Service) Export(ctx context.Context, kind Kind) ([]byte, error) {
	start := time.Now()
	log := s.logger.With(zap.String("kind", string(kind)))

	result, records, err := s.build(ctx, kind)
	if err != nil {
		s.fail(log, kind, start, err)
		return nil, err
	}

	data, err := s.renderer.Render(result)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrRender, err)
		s.fail(log, kind, start, err)
		return nil, err
	}

	elapsed := time.Since(start)
	s.metrics.observe(kind, "ok", elapsed)
	s.metrics.observeDocument(kind, records, len(result.Pages))
	log.Info("export completed",
		zap.Int("records", records),
		zap.Int("pages", len(result.Pages)),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", elapsed),
	)
	return data, nil
}

// Layout 只做排版不渲染，用于调试输出布局 JSON。
func (s *Service) Layout(ctx context.Context, kind Kind) (*layout.Result, error) {
	result, _, err := s.build(ctx, kind)
	return result, err
}

func (s *Service) build(ctx context.Context, kind Kind) (*layout.Result, int, error) {
	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrSnapshot, err)
	}

	opts := layout.BuildOptions{Typesetter: s.renderer, Fonts: s.fonts}
	if s.assets != nil {
		// 每次导出独立缓存，避免重复读取同一张照片或模板
		opts.Assets = asset.NewMemo(s.assets)
	}

	var result *layout.Result
	switch kind {
	case KindTable:
		result, err = layout.BuildRegistrationTable(ctx, records, s.table, opts)
	case KindCards:
		result, err = layout.BuildIDCards(ctx, records, s.cards, opts)
	default:
		return nil, 0, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return result, len(records), nil
}

func (s *Service) fail(log *zap.Logger, kind Kind, start time.Time, err error) {
	outcome := "render_error"
	if errors.Is(err, ErrSnapshot) {
		outcome = "snapshot_error"
	}
	s.metrics.observe(kind, outcome, time.Since(start))
	log.Error("export failed", zap.String("outcome", outcome), zap.Error(err))
}
