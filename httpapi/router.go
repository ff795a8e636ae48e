// Package httpapi 暴露登记与导出的 HTTP 接口。
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ByLCY/eventpass/export"
	"github.com/ByLCY/eventpass/logger"
	"github.com/ByLCY/eventpass/registration"
)

// Registrar creates and lists registrations.
type Registrar interface {
	Register(ctx context.Context, d registration.Draft, photo *registration.Photo) (registration.Record, error)
	List(ctx context.Context) ([]registration.Record, error)
}

// Exporter renders a complete PDF document.
type Exporter interface {
	Export(ctx context.Context, kind export.Kind) ([]byte, error)
}

// Deps 汇总路由需要的依赖。
type Deps struct {
	Registrations Registrar
	Exports       Exporter
	Logger        *zap.Logger

	// UploadDir 非空时以 /uploads 提供本地存储中的照片
	UploadDir     string
	MaxPhotoBytes int64

	// Health 返回 nil 表示依赖正常
	Health func(ctx context.Context) error

	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Registerer == nil {
		d.Registerer = prometheus.DefaultRegisterer
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}

	engine := gin.New()
	engine.MaxMultipartMemory = d.MaxPhotoBytes + 1<<20
	engine.Use(logger.RequestID())
	engine.Use(logger.Recovery(d.Logger))
	engine.Use(logger.GinMiddleware(d.Logger))
	engine.Use(newHTTPMetrics(d.Registerer).middleware())

	engine.GET("/healthz", healthHandler(d.Health))
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	if d.UploadDir != "" {
		engine.Static("/uploads", d.UploadDir)
	}

	h := &Handler{registrations: d.Registrations, exports: d.Exports, maxPhotoBytes: d.MaxPhotoBytes}
	api := engine.Group("/api")
	api.POST("/registrations", h.CreateRegistration)
	api.GET("/registrations", h.ListRegistrations)
	api.GET("/exports/registrations.pdf", h.exportHandler(export.KindTable))
	api.GET("/exports/idcards.pdf", h.exportHandler(export.KindCards))
	return engine
}

func healthHandler(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}
		c.JSON(code, gin.H{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}
