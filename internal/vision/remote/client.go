// Package remote delegates inference to a model server over HTTP.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/ondrasimku/vision-service/internal/domain"
)

// Client talks to a model server exposing:
//
//	POST /classify  multipart "file" -> {"predictions": [{"class_id", "label", "score"}]}
//	POST /detect    multipart "file" -> {"detections": [{"x", "y", "width", "height", "confidence"}]}
//	GET  /health    200 when ready
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type prediction struct {
	ClassID string  `json:"class_id"`
	Label   string  `json:"label"`
	Score   float32 `json:"score"`
}

type detection struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float32 `json:"confidence"`
}

func (c *Client) Classify(ctx context.Context, image []byte) ([]domain.Prediction, error) {
	var result struct {
		Predictions []prediction `json:"predictions"`
	}
	if err := c.post(ctx, "/classify", image, &result); err != nil {
		return nil, err
	}

	out := make([]domain.Prediction, 0, len(result.Predictions))
	for _, p := range result.Predictions {
		out = append(out, domain.Prediction{ClassID: p.ClassID, Label: p.Label, Score: p.Score})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

func (c *Client) DetectFaces(ctx context.Context, image []byte) ([]domain.Box, error) {
	var result struct {
		Detections []detection `json:"detections"`
	}
	if err := c.post(ctx, "/detect", image, &result); err != nil {
		return nil, err
	}

	out := make([]domain.Box, 0, len(result.Detections))
	for _, d := range result.Detections {
		out = append(out, domain.Box{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height, Confidence: d.Confidence})
	}
	return out, nil
}

// CheckHealth reports whether the model server answers on its health endpoint.
func (c *Client) CheckHealth(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server unhealthy: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, image []byte, out any) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image")
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
