package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ondrasimku/vision-service/internal/config"
	"github.com/ondrasimku/vision-service/internal/vision"
	"github.com/ondrasimku/vision-service/internal/vision/dlib"
	"github.com/ondrasimku/vision-service/internal/vision/opencv"
	"github.com/ondrasimku/vision-service/internal/vision/remote"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newDetector wires the configured backend into the service's verdict
// mapping. The returned closer releases native model handles.
func newDetector(ctx context.Context, svc Service, cfg config.DetectorConfig, logger *slog.Logger) (vision.Detector, io.Closer, error) {
	switch svc.Kind {
	case KindCar:
		classifier, closer, err := newClassifier(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return vision.NewCarDetector(classifier, cfg.TopK, cfg.TargetLabel), closer, nil

	case KindFace:
		faces, closer, err := newFaceDetector(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		return vision.NewFaceCounter(faces), closer, nil

	default:
		return nil, nil, fmt.Errorf("unknown service kind %q", svc.Kind)
	}
}

func newClassifier(ctx context.Context, cfg config.DetectorConfig, logger *slog.Logger) (vision.Classifier, io.Closer, error) {
	switch cfg.Backend {
	case config.DetectorOpenCV:
		labels, err := vision.LoadImageNetIndexFile(cfg.LabelsPath)
		if err != nil {
			return nil, nil, err
		}
		classifier, err := opencv.NewClassifier(cfg.ModelPath, cfg.ModelConfig, labels, cfg.TopK)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Loaded classifier", "backend", cfg.Backend, "model", cfg.ModelPath, "classes", len(labels))
		return classifier, classifier, nil

	case config.DetectorRemote:
		client := newRemoteClient(ctx, cfg, logger)
		return client, nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("detector backend %q cannot classify images", cfg.Backend)
	}
}

func newFaceDetector(ctx context.Context, cfg config.DetectorConfig, logger *slog.Logger) (vision.FaceDetector, io.Closer, error) {
	switch cfg.Backend {
	case config.DetectorOpenCV:
		detector, err := opencv.NewCascadeDetector(cfg.CascadePath, opencv.DefaultCascadeParams)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Loaded face cascade", "backend", cfg.Backend, "cascade", cfg.CascadePath)
		return detector, detector, nil

	case config.DetectorDlib:
		detector, err := dlib.NewFaceDetector(cfg.DlibModelDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Loaded dlib models", "backend", cfg.Backend, "dir", cfg.DlibModelDir)
		return detector, detector, nil

	case config.DetectorRemote:
		client := newRemoteClient(ctx, cfg, logger)
		return client, nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("unknown detector backend %q", cfg.Backend)
	}
}

func newRemoteClient(ctx context.Context, cfg config.DetectorConfig, logger *slog.Logger) *remote.Client {
	client := remote.NewClient(cfg.InferenceURL, cfg.Timeout)
	if err := client.CheckHealth(ctx); err != nil {
		logger.Warn("Model server not available", "url", cfg.InferenceURL, "error", err)
	} else {
		logger.Info("Using model server", "url", cfg.InferenceURL)
	}
	return client
}
