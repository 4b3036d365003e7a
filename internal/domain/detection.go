package domain

import "time"

// Upload is a single image received by POST /upload.
type Upload struct {
	OriginalName string
	Filename     string
	ContentType  string
	Data         []byte
}

// Prediction is one classifier output, identified by its ImageNet synset.
type Prediction struct {
	ClassID string  `json:"classId"`
	Label   string  `json:"label"`
	Score   float32 `json:"score"`
}

// Box is a detected face in pixel coordinates.
type Box struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float32 `json:"confidence,omitempty"`
}

type Verdict struct {
	Positive    bool         `json:"positive"`
	Label       string       `json:"label"`
	Predictions []Prediction `json:"predictions,omitempty"`
	Faces       []Box        `json:"faces,omitempty"`
}

type DetectionResult struct {
	Verdict   Verdict
	FileID    string
	FileURL   string
	Detector  string
	CreatedAt time.Time
	Duration  time.Duration
}
