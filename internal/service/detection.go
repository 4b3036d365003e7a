package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ondrasimku/vision-service/internal/domain"
	"github.com/ondrasimku/vision-service/internal/metrics"
	"github.com/ondrasimku/vision-service/internal/storage"
	"github.com/ondrasimku/vision-service/internal/vision"
)

const tracerName = "github.com/ondrasimku/vision-service/internal/service"

var ErrEmptyUpload = errors.New("upload is empty")

type DetectionService struct {
	storage  storage.Storage
	detector vision.Detector
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

func NewDetectionService(store storage.Storage, detector vision.Detector, m *metrics.Metrics, logger *slog.Logger) *DetectionService {
	return &DetectionService{
		storage:  store,
		detector: detector,
		metrics:  m,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,
	}
}

func (s *DetectionService) DetectorName() string {
	return s.detector.Name()
}

// Detect stores the upload and runs the detector on it.
func (s *DetectionService) Detect(ctx context.Context, up domain.Upload) (*domain.DetectionResult, error) {
	ctx, span := s.tracer.Start(ctx, "DetectionService.Detect", trace.WithAttributes(
		attribute.String("detector", s.detector.Name()),
		attribute.String("file.name", up.Filename),
		attribute.Int("file.size", len(up.Data)),
	))
	defer span.End()

	if len(up.Data) == 0 {
		span.SetStatus(codes.Error, ErrEmptyUpload.Error())
		return nil, ErrEmptyUpload
	}

	start := s.now()

	info, err := s.save(ctx, up)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save failed")
		return nil, err
	}

	verdict, err := s.infer(ctx, up.Data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "inference failed")
		return nil, fmt.Errorf("%s detection failed: %w", s.detector.Name(), err)
	}

	s.metrics.Verdict(verdict.Label)
	span.SetAttributes(attribute.String("verdict", verdict.Label))

	result := &domain.DetectionResult{
		Verdict:   verdict,
		FileID:    info.ID,
		FileURL:   info.URL,
		Detector:  s.detector.Name(),
		CreatedAt: start,
		Duration:  s.now().Sub(start),
	}

	s.logger.Info("Image classified",
		"fileId", info.ID,
		"originalName", up.OriginalName,
		"path", info.Path,
		"detector", result.Detector,
		"result", verdict.Label,
		"predictions", len(verdict.Predictions),
		"faces", len(verdict.Faces),
		"duration", result.Duration,
	)
	return result, nil
}

func (s *DetectionService) save(ctx context.Context, up domain.Upload) (storage.FileInfo, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Save")
	defer span.End()

	info, err := s.storage.Save(ctx, bytes.NewReader(up.Data), storage.SaveOptions{
		Filename:    up.Filename,
		ContentType: up.ContentType,
	})
	if err != nil {
		return storage.FileInfo{}, fmt.Errorf("failed to save upload: %w", err)
	}
	s.metrics.UploadSize(len(up.Data))
	return info, nil
}

func (s *DetectionService) infer(ctx context.Context, image []byte) (domain.Verdict, error) {
	ctx, span := s.tracer.Start(ctx, "vision.Detect")
	defer span.End()

	start := s.now()
	verdict, err := s.detector.Detect(ctx, image)
	s.metrics.Inference(s.detector.Name(), s.now().Sub(start))
	return verdict, err
}
