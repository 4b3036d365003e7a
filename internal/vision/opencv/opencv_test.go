package opencv

import (
	"context"
	"image"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ondrasimku/vision-service/internal/domain"
)

func TestBoxes(t *testing.T) {
	got := boxes([]image.Rectangle{image.Rect(10, 20, 60, 90)})
	assert.Equal(t, []domain.Box{{X: 10, Y: 20, Width: 50, Height: 70}}, got)
	assert.Empty(t, boxes(nil))
}

func TestNewCascadeDetectorMissingFile(t *testing.T) {
	_, err := NewCascadeDetector("does-not-exist.xml", DefaultCascadeParams)
	assert.Error(t, err)
}

func TestNewClassifierMissingModel(t *testing.T) {
	_, err := NewClassifier("does-not-exist.onnx", "", nil, 3)
	assert.ErrorContains(t, err, "failed to load network")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

// Runs only when the cascade shipped with OpenCV is available, e.g.
// VISION_TEST_CASCADE=/usr/share/opencv4/haarcascades/haarcascade_frontalface_default.xml
func TestCascadeDetectorRejectsGarbage(t *testing.T) {
	path := os.Getenv("VISION_TEST_CASCADE")
	if path == "" {
		t.Skip("VISION_TEST_CASCADE not set")
	}

	d, err := NewCascadeDetector(path, DefaultCascadeParams)
	require.NoError(t, err)
	defer d.Close()

	_, err = d.DetectFaces(context.Background(), []byte("not an image"))
	assert.Error(t, err)
}
