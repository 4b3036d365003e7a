// Package app assembles and runs one of the detection services.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ondrasimku/vision-service/internal/config"
	httphandler "github.com/ondrasimku/vision-service/internal/http"
	"github.com/ondrasimku/vision-service/internal/metrics"
	"github.com/ondrasimku/vision-service/internal/service"
	"github.com/ondrasimku/vision-service/internal/storage"
	"github.com/ondrasimku/vision-service/internal/storage/local"
	s3storage "github.com/ondrasimku/vision-service/internal/storage/s3"
)

const shutdownTimeout = 5 * time.Second

type Kind string

const (
	KindCar  Kind = "car"
	KindFace Kind = "face"
)

// Service describes one of the binaries built from this module.
type Service struct {
	Kind  Kind
	Name  string
	Title string
	Short string
}

var (
	CarService = Service{
		Kind:  KindCar,
		Name:  "car-service",
		Title: "Car Image Detection",
		Short: "Tell whether an uploaded image shows a car",
	}
	FaceService = Service{
		Kind:  KindFace,
		Name:  "face-service",
		Title: "Face Detection",
		Short: "Tell whether an uploaded image contains a human face",
	}
)

// Run serves svc until ctx is cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context, svc Service, cfg *config.Config, logger *slog.Logger) error {
	store, err := newStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	detector, closer, err := newDetector(ctx, svc, cfg.Detector, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize detector: %w", err)
	}
	defer closer.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg, string(svc.Kind))

	detection := service.NewDetectionService(store, detector, m, logger)

	gin.SetMode(gin.ReleaseMode)
	router, err := httphandler.NewRouter(detection, store, m, httphandler.RouterConfig{
		Title:       svc.Title,
		MaxFileSize: cfg.MaxFileSize,
	}, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting service",
			"service", svc.Name,
			"addr", cfg.HTTPAddr,
			"detector", cfg.Detector.Backend,
			"storage", cfg.Storage.Backend,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server exited")
	return nil
}

func newStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Backend {
	case config.StorageS3:
		client, err := s3storage.NewClient(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		return s3storage.NewS3Storage(client, cfg.S3.Bucket, cfg.S3.Prefix), nil
	default:
		return local.NewLocalStorage(cfg.Dir)
	}
}
