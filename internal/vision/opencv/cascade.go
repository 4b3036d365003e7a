package opencv

import (
	"context"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ondrasimku/vision-service/internal/domain"
)

type CascadeParams struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point
}

// DefaultCascadeParams are the usual settings for the frontal face cascade.
var DefaultCascadeParams = CascadeParams{
	ScaleFactor:  1.1,
	MinNeighbors: 5,
	MinSize:      image.Pt(30, 30),
}

type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	params     CascadeParams
}

func NewCascadeDetector(cascadePath string, params CascadeParams) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadePath) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade from %s", cascadePath)
	}

	return &CascadeDetector{
		classifier: classifier,
		params:     params,
	}, nil
}

func (d *CascadeDetector) DetectFaces(ctx context.Context, data []byte) ([]domain.Box, error) {
	gray, err := gocv.IMDecode(data, gocv.IMReadGrayScale)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer gray.Close()
	if gray.Empty() {
		return nil, ErrEmptyImage
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	rects := d.classifier.DetectMultiScaleWithParams(gray, d.params.ScaleFactor,
		d.params.MinNeighbors, 0, d.params.MinSize, image.Point{})
	d.mu.Unlock()

	return boxes(rects), nil
}

func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}

func boxes(rects []image.Rectangle) []domain.Box {
	out := make([]domain.Box, 0, len(rects))
	for _, r := range rects {
		out = append(out, domain.Box{
			X:      r.Min.X,
			Y:      r.Min.Y,
			Width:  r.Dx(),
			Height: r.Dy(),
		})
	}
	return out
}
