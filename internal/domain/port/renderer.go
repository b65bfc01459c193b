package port

import (
	"image"

	"inventory-vision/internal/domain/entity"
)

// Renderer рисует рамки и подписи найденных объектов
type Renderer interface {
	// Render возвращает новое изображение, исходное не изменяется
	Render(src image.Image, detections []entity.Detection) image.Image
}
