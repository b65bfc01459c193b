package app

import "inventory-vision/internal/domain/entity"

// Assemble собирает итоговую запись; порядок и значения детекций сохраняются.
func Assemble(annotated entity.AnnotatedImageRef, detections []entity.Detection) entity.ResultRecord {
	copied := make([]entity.Detection, len(detections))
	copy(copied, detections)

	return entity.ResultRecord{
		AnnotatedImage: annotated,
		Detections:     copied,
	}
}
