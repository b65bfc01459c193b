//go:build gocv
// +build gocv

package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/domain/port"
)

// GoCVDetector запускает SSD-совместимую сеть через OpenCV DNN.
// gocv.Net не допускает конкурентный Forward, поэтому инференс идёт под мьютексом.
type GoCVDetector struct {
	mu     sync.Mutex
	net    gocv.Net
	labels []string

	InputSize     image.Point
	ScaleFactor   float64
	Mean          gocv.Scalar
	SwapRB        bool
	MinConfidence float32
}

// NewGoCVDetector загружает модель один раз; labelsPath может быть пустым.
func NewGoCVDetector(modelPath, configPath, labelsPath string) (*GoCVDetector, error) {
	net := gocv.ReadNet(modelPath, configPath)
	if net.Empty() {
		return nil, fmt.Errorf("failed to load model %q", modelPath)
	}

	labels, err := readLabels(labelsPath)
	if err != nil {
		net.Close()
		return nil, err
	}

	return &GoCVDetector{
		net:           net,
		labels:        labels,
		InputSize:     image.Pt(300, 300),
		ScaleFactor:   1.0 / 127.5,
		Mean:          gocv.NewScalar(127.5, 127.5, 127.5, 0),
		SwapRB:        true,
		MinConfidence: 0.1,
	}, nil
}

// Infer прогоняет изображение через сеть и возвращает рамки в пикселях исходника.
func (d *GoCVDetector) Infer(ctx context.Context, imageData []byte) ([]entity.RawDetection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, d.ScaleFactor, d.InputSize, d.Mean, d.SwapRB, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	cols := float32(mat.Cols())
	rows := float32(mat.Rows())

	// Выход SSD: [1, 1, N, 7] = image_id, class_id, confidence, left, top, right, bottom.
	detections := make([]entity.RawDetection, 0)
	for i := 0; i+6 < out.Total(); i += 7 {
		confidence := out.GetFloatAt(0, i+2)
		if confidence < d.MinConfidence {
			continue
		}

		label := d.label(int(out.GetFloatAt(0, i+1)))
		score := float64(confidence)
		detections = append(detections, entity.RawDetection{
			Label: label,
			Score: &score,
			Box: entity.Box{
				XMin: int(out.GetFloatAt(0, i+3) * cols),
				YMin: int(out.GetFloatAt(0, i+4) * rows),
				XMax: int(out.GetFloatAt(0, i+5) * cols),
				YMax: int(out.GetFloatAt(0, i+6) * rows),
			},
		})
	}

	return detections, nil
}

// Close освобождает сеть
func (d *GoCVDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// label возвращает nil для неизвестного класса, адаптер подставит "Unknown".
func (d *GoCVDetector) label(classID int) *string {
	if classID < 0 || classID >= len(d.labels) {
		return nil
	}
	l := d.labels[classID]
	return &l
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

func readLabels(labelsPath string) ([]string, error) {
	if labelsPath == "" {
		return nil, nil
	}
	data, err := os.ReadFile(labelsPath)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}

	labels := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	for i := range labels {
		labels[i] = strings.TrimSpace(labels[i])
	}
	return labels, nil
}

var _ port.ObjectDetector = (*GoCVDetector)(nil)
