package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ondrasimku/vision-service/internal/http/handler"
	"github.com/ondrasimku/vision-service/internal/http/templates"
	"github.com/ondrasimku/vision-service/internal/metrics"
	"github.com/ondrasimku/vision-service/internal/storage"
)

type RouterConfig struct {
	Title       string
	MaxFileSize int64
}

func NewRouter(detector handler.Detector, store storage.Storage, m *metrics.Metrics, cfg RouterConfig, logger *slog.Logger) (*gin.Engine, error) {
	tmpl, err := templates.Parse()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(
		gin.Recovery(),
		RequestID(),
		AccessLog(logger),
		Metrics(m),
		cors.New(cors.Config{
			AllowAllOrigins: true,
			AllowMethods:    []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:    []string{"Content-Type", RequestIDHeader},
			ExposeHeaders:   []string{RequestIDHeader},
		}),
	)

	healthHandler := handler.NewHealthHandler(detector.DetectorName())
	uploadHandler := handler.NewUploadHandler(detector, store, cfg.MaxFileSize, cfg.Title, m, logger)

	router.GET("/", uploadHandler.Index)
	router.POST("/upload", uploadHandler.Upload)
	router.GET("/uploads/:fileId", uploadHandler.GetFile)

	router.GET("/healthz", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(m.Handler()))

	return router, nil
}
