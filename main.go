package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ByLCY/eventpass/asset"
	"github.com/ByLCY/eventpass/config"
	"github.com/ByLCY/eventpass/export"
	"github.com/ByLCY/eventpass/httpapi"
	"github.com/ByLCY/eventpass/layout"
	"github.com/ByLCY/eventpass/logger"
	"github.com/ByLCY/eventpass/persistence"
	"github.com/ByLCY/eventpass/registration"
	canvasrenderer "github.com/ByLCY/eventpass/renderer/canvas"
	"github.com/ByLCY/eventpass/storage"
)

func main() {
	kind := flag.String("export", "", "一次性导出：table 或 cards；为空时启动 HTTP 服务")
	output := flag.String("out", "output/export.pdf", "PDF 输出路径")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}
	zl, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("初始化失败", zap.Error(err))
	}
	defer a.close()

	if *kind != "" {
		k, err := export.ParseKind(*kind)
		if err != nil {
			zl.Fatal("无效的导出类型", zap.Error(err))
		}
		if err := run(ctx, a.exports, k, *output, *debug); err != nil {
			zl.Fatal("生成 PDF 失败", zap.Error(err))
		}
		fmt.Printf("已生成 PDF：%s\n", *output)
		return
	}

	if err := serve(ctx, cfg, a, zl); err != nil {
		zl.Fatal("服务异常退出", zap.Error(err))
	}
}

type app struct {
	db            *persistence.Database
	store         storage.Store
	registrations *registration.Service
	exports       *export.Service
}

// newApp 串联数据库、照片存储、登记服务与导出服务。
func newApp(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*app, error) {
	db, err := persistence.NewDatabase(&cfg.Database, zl, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	store, err := storage.New(ctx, &cfg.Storage, zl)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	repo := persistence.NewRegistrationRepository(db.DB)
	exports := export.NewService(
		repo,
		asset.NewResolver(store, zl),
		canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{BaseDir: cfg.Fonts.Dir}),
		zl,
		export.WithEvent(cfg.Event),
		export.WithFonts(cfg.Fonts),
		export.WithMetrics(export.NewMetrics(prometheus.DefaultRegisterer)),
	)
	return &app{
		db:            db,
		store:         store,
		registrations: registration.NewService(repo, store, zl),
		exports:       exports,
	}, nil
}

func (a *app) close() { _ = a.db.Close() }

// run 执行一次导出：可选输出布局调试 JSON，再渲染并写入 PDF。
func run(ctx context.Context, svc *export.Service, kind export.Kind, outputPath, debugPath string) error {
	if debugPath != "" {
		result, err := svc.Layout(ctx, kind)
		if err != nil {
			return fmt.Errorf("布局计算失败: %w", err)
		}
		if err := layout.WriteDebugJSON(result, debugPath); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	pdfBytes, err := svc.Export(ctx, kind)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(outputPath, pdfBytes, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

func serve(ctx context.Context, cfg *config.Config, a *app, zl *zap.Logger) error {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := httpapi.Deps{
		Registrations: a.registrations,
		Exports:       a.exports,
		Logger:        zl,
		MaxPhotoBytes: cfg.Upload.MaxPhotoBytes,
		Health: func(context.Context) error {
			return a.db.Ping()
		},
	}
	if local, ok := a.store.(*storage.LocalStore); ok {
		deps.UploadDir = local.BaseDir()
	}

	srv := &http.Server{
		Addr:        ":" + cfg.App.Port,
		Handler:     httpapi.NewRouter(deps),
		ReadTimeout: cfg.Upload.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("Starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
