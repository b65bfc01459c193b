//go:build !gocv
// +build !gocv

package vision

import (
	"context"
	"errors"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/domain/port"
)

// ErrGoCVDisabled сборка без тега gocv.
var ErrGoCVDisabled = errors.New("gocv build tag is not enabled")

// GoCVDetector заглушка детектора без OpenCV.
type GoCVDetector struct{}

// NewGoCVDetector возвращает ошибку, если сборка без тега gocv.
func NewGoCVDetector(modelPath, configPath, labelsPath string) (*GoCVDetector, error) {
	_ = modelPath
	_ = configPath
	_ = labelsPath
	return nil, ErrGoCVDisabled
}

// Infer возвращает ошибку, если сборка без тега gocv.
func (d *GoCVDetector) Infer(ctx context.Context, imageData []byte) ([]entity.RawDetection, error) {
	_ = ctx
	_ = imageData
	return nil, ErrGoCVDisabled
}

// Close ничего не делает.
func (d *GoCVDetector) Close() error {
	return nil
}

var _ port.ObjectDetector = (*GoCVDetector)(nil)
