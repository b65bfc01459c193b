package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/infrastructure/logger"
)

// PipelineService проводит загрузку через приём, детекцию, разметку и сборку результата.
type PipelineService struct {
	intake        *IntakeService
	detection     *DetectionService
	annotation    *AnnotationService
	log           *logrus.Logger
	maxUploadSize int64
}

// NewPipelineService создаёт конвейер обработки загрузок
func NewPipelineService(intake *IntakeService, detection *DetectionService, annotation *AnnotationService, log *logrus.Logger, maxUploadSize int64) *PipelineService {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &PipelineService{
		intake:        intake,
		detection:     detection,
		annotation:    annotation,
		log:           log,
		maxUploadSize: maxUploadSize,
	}
}

// MaxUploadSize возвращает лимит размера загрузки в байтах
func (s *PipelineService) MaxUploadSize() int64 {
	return s.maxUploadSize
}

// Process выполняет все этапы по очереди. Любая ошибка завершает обработку, частичный результат не возвращается.
func (s *PipelineService) Process(ctx context.Context, upload entity.UploadedImage) (*entity.ResultRecord, error) {
	start := time.Now()
	entry := logger.FromContext(ctx, s.log).WithField("filename", upload.Filename)
	entry.WithField("stage", entity.StageReceived).Debug("Pipeline stage")

	fail := func(stage entity.Stage, err error) (*entity.ResultRecord, error) {
		entry.WithFields(logrus.Fields{
			"stage":      entity.StageError,
			"failed_at":  stage,
			"error":      err.Error(),
			"elapsed_ms": time.Since(start).Milliseconds(),
		}).Warn("Pipeline failed")
		return nil, err
	}

	ref, err := s.intake.ValidateAndStore(ctx, upload.Filename, upload.Content, s.maxUploadSize)
	if err != nil {
		return fail(entity.StageValidated, err)
	}
	entry = entry.WithField("key", ref.Key)
	entry.WithField("stage", entity.StageValidated).Debug("Pipeline stage")

	detections, err := s.detection.Detect(ctx, ref)
	if err != nil {
		return fail(entity.StageDetected, err)
	}
	entry.WithFields(logrus.Fields{
		"stage":      entity.StageDetected,
		"detections": len(detections),
	}).Debug("Pipeline stage")

	annotated, err := s.annotation.Annotate(ctx, ref, detections)
	if err != nil {
		return fail(entity.StageAnnotated, err)
	}
	entry.WithField("stage", entity.StageAnnotated).Debug("Pipeline stage")

	result := Assemble(annotated, detections)
	entry.WithField("stage", entity.StageAssembled).Debug("Pipeline stage")

	entry.WithFields(logrus.Fields{
		"stage":         entity.StageReturned,
		"annotated_key": annotated.Key,
		"detections":    len(result.Detections),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	}).Info("Pipeline finished")

	return &result, nil
}
