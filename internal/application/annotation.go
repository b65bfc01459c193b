package app

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/domain/port"
	"inventory-vision/internal/infrastructure/logger"
)

const annotatedPrefix = "detected_"

// AnnotationService рисует детекции на копии изображения и сохраняет её под новым ключом.
type AnnotationService struct {
	storage  port.ImageStorage
	renderer port.Renderer
	log      *logrus.Logger
}

// NewAnnotationService создаёт сервис разметки
func NewAnnotationService(storage port.ImageStorage, renderer port.Renderer, log *logrus.Logger) *AnnotationService {
	return &AnnotationService{
		storage:  storage,
		renderer: renderer,
		log:      log,
	}
}

// Annotate не меняет ни исходный файл, ни список детекций.
func (s *AnnotationService) Annotate(ctx context.Context, ref entity.StoredImageRef, detections []entity.Detection) (entity.AnnotatedImageRef, error) {
	data, err := s.storage.Get(ctx, ref.Key)
	if err != nil {
		return entity.AnnotatedImageRef{}, fmt.Errorf("load image: %w", err)
	}

	img, err := decodeImage(data)
	if err != nil {
		return entity.AnnotatedImageRef{}, err
	}

	encoded, err := encodePNG(s.renderer.Render(img, detections))
	if err != nil {
		return entity.AnnotatedImageRef{}, err
	}

	annotated := entity.AnnotatedImageRef{
		StoredImageRef: entity.StoredImageRef{
			Key:      AnnotatedKey(ref.Key),
			Filename: annotatedPrefix + replaceExt(ref.Filename, ".png"),
		},
		SourceKey: ref.Key,
	}
	if err := s.storage.Put(ctx, annotated.Key, encoded); err != nil {
		return entity.AnnotatedImageRef{}, fmt.Errorf("store annotated image: %w", err)
	}

	logger.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"source_key": ref.Key,
		"key":        annotated.Key,
		"boxes":      len(detections),
	}).Debug("Annotated image stored")

	return annotated, nil
}

// AnnotatedKey ключ размеченной копии: detected_<токен>.png
func AnnotatedKey(sourceKey string) string {
	return annotatedPrefix + replaceExt(sourceKey, ".png")
}

func replaceExt(name, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}
