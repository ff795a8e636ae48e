package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ByLCY/eventpass/export"
	"github.com/ByLCY/eventpass/logger"
	"github.com/ByLCY/eventpass/registration"
)

// ErrorResponse 是所有错误响应的 JSON 结构。
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Handler serves registration and export endpoints.
type Handler struct {
	registrations Registrar
	exports       Exporter
	maxPhotoBytes int64
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: c.GetString("request_id"),
	})
}

// CreateRegistration 处理 multipart 登记表单，photo 字段可选。
func (h *Handler) CreateRegistration(c *gin.Context) {
	if h.maxPhotoBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxPhotoBytes+1<<20)
	}
	if err := c.Request.ParseMultipartForm(h.maxPhotoBytes + 1<<20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return
		}
		respondError(c, http.StatusBadRequest, "bad_request", "invalid form data")
		return
	}

	draft := registration.Draft{
		Name:         c.PostForm("name"),
		Cluster:      c.PostForm("cluster"),
		Unit:         c.PostForm("unit"),
		Designations: c.PostFormArray("designations"),
	}

	var photo *registration.Photo
	file, header, err := c.Request.FormFile("photo")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		respondError(c, http.StatusBadRequest, "bad_request", "invalid photo upload")
		return
	default:
		defer file.Close()
		if h.maxPhotoBytes > 0 && header.Size > h.maxPhotoBytes {
			respondError(c, http.StatusRequestEntityTooLarge, "too_large",
				fmt.Sprintf("photo exceeds maximum size of %d bytes", h.maxPhotoBytes))
			return
		}
		contentType := header.Header.Get("Content-Type")
		if !registration.AllowedPhotoType(contentType) {
			respondError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "photo must be jpeg, png, gif, webp or bmp")
			return
		}
		photo = &registration.Photo{Filename: header.Filename, ContentType: contentType, Body: file}
	}

	rec, err := h.registrations.Register(c.Request.Context(), draft, photo)
	if err != nil {
		if errors.Is(err, registration.ErrInvalid) {
			respondError(c, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		logger.GetGinLogger(c).Error("create registration failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to create registration")
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// ListRegistrations 返回全部登记记录。
func (h *Handler) ListRegistrations(c *gin.Context) {
	records, err := h.registrations.List(c.Request.Context())
	if err != nil {
		logger.GetGinLogger(c).Error("list registrations failed", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "internal_error", "failed to list registrations")
		return
	}
	if records == nil {
		records = []registration.Record{}
	}
	c.JSON(http.StatusOK, records)
}

// exportHandler 生成完整 PDF 后再写响应；失败时只返回 JSON 错误，不写任何 PDF 字节。
func (h *Handler) exportHandler(kind export.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := h.exports.Export(c.Request.Context(), kind)
		if err != nil {
			logger.GetGinLogger(c).Error("export failed", zap.String("kind", string(kind)), zap.Error(err))
			respondError(c, http.StatusInternalServerError, "export_failed", "failed to generate document")
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, kind.Filename()))
		c.Data(http.StatusOK, "application/pdf", data)
	}
}
