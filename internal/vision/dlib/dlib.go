// Package dlib detects faces with dlib's HOG detector through go-face.
package dlib

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"sync"

	face "github.com/Kagami/go-face"

	"github.com/ondrasimku/vision-service/internal/domain"
)

// FaceDetector needs a model directory holding
// shape_predictor_5_face_landmarks.dat and
// dlib_face_recognition_resnet_model_v1.dat.
type FaceDetector struct {
	mu  sync.Mutex
	rec *face.Recognizer
}

func NewFaceDetector(modelDir string) (*FaceDetector, error) {
	rec, err := face.NewRecognizer(modelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load dlib models from %s: %w", modelDir, err)
	}
	return &FaceDetector{rec: rec}, nil
}

func (d *FaceDetector) DetectFaces(ctx context.Context, data []byte) ([]domain.Box, error) {
	jpg, err := toJPEG(data)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	faces, err := d.rec.Recognize(jpg)
	d.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("dlib recognize: %w", err)
	}

	out := make([]domain.Box, 0, len(faces))
	for _, f := range faces {
		r := f.Rectangle
		out = append(out, domain.Box{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()})
	}
	return out, nil
}

func (d *FaceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec.Close()
	return nil
}

// toJPEG passes JPEG through untouched and re-encodes anything else the
// image package can decode; dlib's loader only reads JPEG.
func toJPEG(data []byte) ([]byte, error) {
	if http.DetectContentType(data) == "image/jpeg" {
		return data, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
