package vision

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"time"

	jsoniter "github.com/json-iterator/go"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/domain/port"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RemoteDetector вызывает внешний сервис инференса по HTTP.
// Безопасен для конкурентного использования.
type RemoteDetector struct {
	inferenceURL string
	client       *http.Client
}

// NewRemoteDetector создаёт клиента сервиса инференса
func NewRemoteDetector(inferenceURL string, timeout time.Duration) *RemoteDetector {
	return &RemoteDetector{
		inferenceURL: inferenceURL,
		client:       &http.Client{Timeout: timeout},
	}
}

type inferenceResponse struct {
	Detections []entity.RawDetection `json:"detections"`
}

// Infer отправляет изображение multipart-формой и разбирает список детекций.
func (d *RemoteDetector) Infer(ctx context.Context, imageData []byte) ([]entity.RawDetection, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "image")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("copy image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.inferenceURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference failed with status: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return decodeDetections(raw)
}

// decodeDetections принимает как {"detections": [...]}, так и голый массив.
func decodeDetections(raw []byte) ([]entity.RawDetection, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []entity.RawDetection
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return list, nil
	}

	var result inferenceResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return result.Detections, nil
}

// CheckHealth проверяет доступность сервиса инференса
func (d *RemoteDetector) CheckHealth(ctx context.Context) error {
	healthURL, err := healthURLFor(d.inferenceURL)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}

	return nil
}

// healthURLFor заменяет последний сегмент пути на /health: http://h/predict -> http://h/health.
func healthURLFor(inferenceURL string) (string, error) {
	u, err := url.Parse(inferenceURL)
	if err != nil {
		return "", fmt.Errorf("parse inference url: %w", err)
	}
	u.Path = path.Join(path.Dir(u.Path), "health")
	u.RawQuery = ""
	return u.String(), nil
}

var _ port.ObjectDetector = (*RemoteDetector)(nil)
