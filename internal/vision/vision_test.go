package vision

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ondrasimku/vision-service/internal/domain"
)

type stubClassifier struct {
	predictions []domain.Prediction
	err         error
}

func (s stubClassifier) Classify(ctx context.Context, image []byte) ([]domain.Prediction, error) {
	return s.predictions, s.err
}

type stubFaces struct {
	faces []domain.Box
	err   error
}

func (s stubFaces) DetectFaces(ctx context.Context, image []byte) ([]domain.Box, error) {
	return s.faces, s.err
}

func preds(labels ...string) []domain.Prediction {
	out := make([]domain.Prediction, len(labels))
	for i, l := range labels {
		out[i] = domain.Prediction{Label: l, Score: 1 / float32(i+1)}
	}
	return out
}

func TestCarDetector(t *testing.T) {
	tests := []struct {
		name        string
		predictions []domain.Prediction
		wantLabel   string
	}{
		{"sports car first", preds("sports_car", "convertible", "grille"), LabelCar},
		{"car wheel third", preds("tabby", "tiger_cat", "car_wheel"), LabelCar},
		{"upper case label", preds("Racer", "CAR_MIRROR", "cab"), LabelCar},
		{"no car", preds("tabby", "tiger_cat", "Egyptian_cat"), LabelNotCar},
		{"car only in fourth place", preds("tabby", "tiger_cat", "lynx", "sports_car"), LabelNotCar},
		{"empty", nil, LabelNotCar},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewCarDetector(stubClassifier{predictions: tt.predictions}, 3, "car")
			v, err := d.Detect(context.Background(), []byte("img"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantLabel, v.Label)
			assert.Equal(t, tt.wantLabel == LabelCar, v.Positive)
			assert.LessOrEqual(t, len(v.Predictions), 3)
		})
	}
}

func TestCarDetectorDefaults(t *testing.T) {
	d := NewCarDetector(stubClassifier{predictions: preds("a", "b", "c", "minicar")}, 0, "")
	assert.Equal(t, 3, d.topK)
	assert.Equal(t, "car", d.target)
	assert.Equal(t, "car", d.Name())
}

func TestCarDetectorError(t *testing.T) {
	boom := errors.New("model unavailable")
	d := NewCarDetector(stubClassifier{err: boom}, 3, "car")
	_, err := d.Detect(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestFaceCounter(t *testing.T) {
	d := NewFaceCounter(stubFaces{faces: []domain.Box{{X: 1, Y: 2, Width: 30, Height: 30}}})
	v, err := d.Detect(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.True(t, v.Positive)
	assert.Equal(t, LabelHuman, v.Label)
	assert.Len(t, v.Faces, 1)

	d = NewFaceCounter(stubFaces{})
	v, err = d.Detect(context.Background(), []byte("img"))
	require.NoError(t, err)
	assert.False(t, v.Positive)
	assert.Equal(t, LabelNotHuman, v.Label)
	assert.Equal(t, "face", d.Name())
}

func TestFaceCounterError(t *testing.T) {
	boom := errors.New("cascade not loaded")
	_, err := NewFaceCounter(stubFaces{err: boom}).Detect(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}

func TestMatchesLabel(t *testing.T) {
	assert.True(t, MatchesLabel(preds("streetcar"), "car"))
	assert.True(t, MatchesLabel(preds("cardigan"), "CAR"))
	assert.False(t, MatchesLabel(preds("truck", "bus"), "car"))
}
