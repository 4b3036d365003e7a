// Package vision turns raw inference output into the two-way verdicts the
// services render.
package vision

import (
	"context"
	"strings"

	"github.com/ondrasimku/vision-service/internal/domain"
)

const (
	LabelCar      = "Car"
	LabelNotCar   = "Not Car"
	LabelHuman    = "Human"
	LabelNotHuman = "Not Human"
)

// Classifier returns predictions for an encoded image, best first.
type Classifier interface {
	Classify(ctx context.Context, image []byte) ([]domain.Prediction, error)
}

// FaceDetector returns the faces found in an encoded image.
type FaceDetector interface {
	DetectFaces(ctx context.Context, image []byte) ([]domain.Box, error)
}

// Detector maps an image to a verdict.
type Detector interface {
	Name() string
	Detect(ctx context.Context, image []byte) (domain.Verdict, error)
}

// CarDetector flags an image as a car when any of the classifier's top
// predictions has the target word in its label.
type CarDetector struct {
	classifier Classifier
	topK       int
	target     string
}

func NewCarDetector(classifier Classifier, topK int, target string) *CarDetector {
	if topK < 1 {
		topK = 3
	}
	if target == "" {
		target = "car"
	}

	return &CarDetector{
		classifier: classifier,
		topK:       topK,
		target:     strings.ToLower(target),
	}
}

func (d *CarDetector) Name() string { return "car" }

func (d *CarDetector) Detect(ctx context.Context, image []byte) (domain.Verdict, error) {
	predictions, err := d.classifier.Classify(ctx, image)
	if err != nil {
		return domain.Verdict{}, err
	}
	if len(predictions) > d.topK {
		predictions = predictions[:d.topK]
	}

	verdict := domain.Verdict{
		Label:       LabelNotCar,
		Predictions: predictions,
	}
	if MatchesLabel(predictions, d.target) {
		verdict.Positive = true
		verdict.Label = LabelCar
	}
	return verdict, nil
}

// MatchesLabel is a substring test, so "sports_car" and "streetcar" both
// match "car".
func MatchesLabel(predictions []domain.Prediction, target string) bool {
	target = strings.ToLower(target)
	for _, p := range predictions {
		if strings.Contains(strings.ToLower(p.Label), target) {
			return true
		}
	}
	return false
}

// FaceCounter flags an image as human when at least one face is found.
type FaceCounter struct {
	faces FaceDetector
}

func NewFaceCounter(faces FaceDetector) *FaceCounter {
	return &FaceCounter{faces: faces}
}

func (d *FaceCounter) Name() string { return "face" }

func (d *FaceCounter) Detect(ctx context.Context, image []byte) (domain.Verdict, error) {
	faces, err := d.faces.DetectFaces(ctx, image)
	if err != nil {
		return domain.Verdict{}, err
	}

	verdict := domain.Verdict{
		Label: LabelNotHuman,
		Faces: faces,
	}
	if len(faces) > 0 {
		verdict.Positive = true
		verdict.Label = LabelHuman
	}
	return verdict, nil
}
