package port

import (
	"context"

	"inventory-vision/internal/domain/entity"
)

// ObjectDetector внешний детектор объектов (локальная модель или удалённый сервис)
type ObjectDetector interface {
	// Infer возвращает найденные объекты в том порядке, в котором их выдала модель
	Infer(ctx context.Context, imageData []byte) ([]entity.RawDetection, error)
}
