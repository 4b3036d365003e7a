// Package opencv runs inference through OpenCV: a MobileNetV2 network via the
// DNN module for classification and a Haar cascade for faces.
package opencv

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ondrasimku/vision-service/internal/domain"
	"github.com/ondrasimku/vision-service/internal/vision"
)

// MobileNetV2 input geometry and the [-1, 1] scaling it was trained with.
const (
	inputSize = 224
	meanValue = 127.5
	scale     = 1.0 / 127.5
)

var ErrEmptyImage = errors.New("image could not be decoded")

// Classifier wraps an OpenCV DNN network. gocv.Net is not safe for
// concurrent use, so Forward calls are serialized.
type Classifier struct {
	mu     sync.Mutex
	net    gocv.Net
	labels vision.Labels
	topK   int
}

// NewClassifier loads the network from modelPath (ONNX, Caffe, TensorFlow;
// configPath may be empty for single-file formats).
func NewClassifier(modelPath, configPath string, labels vision.Labels, topK int) (*Classifier, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("failed to load network from %s: %w", modelPath, err)
	}

	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network from %s", modelPath)
	}

	if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
		net.Close()
		return nil, fmt.Errorf("set backend: %w", err)
	}
	if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
		net.Close()
		return nil, fmt.Errorf("set target: %w", err)
	}

	return &Classifier{
		net:    net,
		labels: labels,
		topK:   topK,
	}, nil
}

func (c *Classifier) Classify(ctx context.Context, data []byte) ([]domain.Prediction, error) {
	img, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, ErrEmptyImage
	}

	// swapRB: decoded Mats are BGR, the network expects RGB.
	blob := gocv.BlobFromImage(img, scale, image.Pt(inputSize, inputSize),
		gocv.NewScalar(meanValue, meanValue, meanValue, 0), true, false)
	defer blob.Close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.net.SetInput(blob, "")
	prob := c.net.Forward("")
	c.mu.Unlock()
	defer prob.Close()

	scores, err := prob.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read network output: %w", err)
	}

	// The Mat owns scores; TopK copies what it keeps.
	return vision.TopK(scores, c.labels, c.topK), nil
}

func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.net.Close()
}
