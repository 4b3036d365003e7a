package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ondrasimku/vision-service/internal/domain"
	"github.com/ondrasimku/vision-service/internal/metrics"
	"github.com/ondrasimku/vision-service/internal/storage/local"
	"github.com/ondrasimku/vision-service/internal/vision"
)

type fakeClassifier struct {
	predictions []domain.Prediction
	err         error
	seen        []byte
}

func (f *fakeClassifier) Classify(ctx context.Context, image []byte) ([]domain.Prediction, error) {
	f.seen = image
	return f.predictions, f.err
}

func newService(t *testing.T, classifier vision.Classifier) (*DetectionService, *local.LocalStorage) {
	t.Helper()

	store, err := local.NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New(prometheus.NewRegistry(), "car")
	return NewDetectionService(store, vision.NewCarDetector(classifier, 3, "car"), m, logger), store
}

func TestDetectCar(t *testing.T) {
	classifier := &fakeClassifier{predictions: []domain.Prediction{
		{Label: "sports_car", Score: 0.8},
		{Label: "racer", Score: 0.1},
	}}
	svc, store := newService(t, classifier)

	result, err := svc.Detect(context.Background(), domain.Upload{
		Filename:    "car.png",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
	})
	require.NoError(t, err)

	assert.Equal(t, vision.LabelCar, result.Verdict.Label)
	assert.True(t, result.Verdict.Positive)
	assert.Equal(t, "car.png", result.FileID)
	assert.Equal(t, "/uploads/car.png", result.FileURL)
	assert.Equal(t, "car", result.Detector)
	assert.Equal(t, []byte("png-bytes"), classifier.seen)

	saved, err := os.ReadFile(filepath.Join(store.Dir(), "car.png"))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(saved, []byte("png-bytes")))
}

func TestDetectNotCar(t *testing.T) {
	svc, _ := newService(t, &fakeClassifier{predictions: []domain.Prediction{{Label: "tabby"}}})

	result, err := svc.Detect(context.Background(), domain.Upload{Filename: "cat.jpg", Data: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, vision.LabelNotCar, result.Verdict.Label)
	assert.False(t, result.Verdict.Positive)
}

func TestDetectInferenceError(t *testing.T) {
	boom := errors.New("forward pass failed")
	svc, _ := newService(t, &fakeClassifier{err: boom})

	_, err := svc.Detect(context.Background(), domain.Upload{Filename: "car.jpg", Data: []byte("x")})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "car detection failed")
}

func TestDetectEmptyUpload(t *testing.T) {
	svc, _ := newService(t, &fakeClassifier{})

	_, err := svc.Detect(context.Background(), domain.Upload{Filename: "car.jpg"})
	assert.ErrorIs(t, err, ErrEmptyUpload)
}

func TestDetectSaveError(t *testing.T) {
	svc, _ := newService(t, &fakeClassifier{})

	_, err := svc.Detect(context.Background(), domain.Upload{Filename: "../car.jpg", Data: []byte("x")})
	assert.ErrorContains(t, err, "failed to save upload")
}

func TestDetectLogsUploadOrigin(t *testing.T) {
	store, err := local.NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	classifier := &fakeClassifier{predictions: []domain.Prediction{{Label: "convertible"}}}
	svc := NewDetectionService(store, vision.NewCarDetector(classifier, 3, "car"), metrics.New(prometheus.NewRegistry(), "car"), logger)

	_, err = svc.Detect(context.Background(), domain.Upload{
		OriginalName: "My Car.png",
		Filename:     "My_Car.png",
		Data:         []byte("x"),
	})
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Image classified", entry["msg"])
	assert.Equal(t, "My Car.png", entry["originalName"])
	assert.Equal(t, filepath.Join(store.Dir(), "My_Car.png"), entry["path"])
}
