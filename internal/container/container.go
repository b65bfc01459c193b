package container

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"inventory-vision/config"
	app "inventory-vision/internal/application"
	"inventory-vision/internal/domain/port"
	"inventory-vision/internal/infrastructure/storage"
	"inventory-vision/internal/infrastructure/vision"
)

type Container struct {
	Log               *logrus.Logger
	Storage           port.ImageStorage
	Detector          port.ObjectDetector
	UserService       *app.UserService
	PipelineService   *app.PipelineService
	IntakeService     *app.IntakeService
	DetectionService  *app.DetectionService
	AnnotationService *app.AnnotationService

	closers []io.Closer
}

// Options параметры сервисов, не зависящие от адаптеров
type Options struct {
	MaxUploadSize int64
	Detection     app.DetectionOptions
}

// New собирает сервисы приложения из готовых адаптеров
func New(log *logrus.Logger, userRepo port.UserRepository, images port.ImageStorage, detector port.ObjectDetector, renderer port.Renderer, opts Options) *Container {
	userService := app.NewUserService(userRepo)
	intakeService := app.NewIntakeService(images, log)
	detectionService := app.NewDetectionService(images, detector, log, opts.Detection)
	annotationService := app.NewAnnotationService(images, renderer, log)
	pipelineService := app.NewPipelineService(intakeService, detectionService, annotationService, log, opts.MaxUploadSize)

	return &Container{
		Log:               log,
		Storage:           images,
		Detector:          detector,
		UserService:       userService,
		PipelineService:   pipelineService,
		IntakeService:     intakeService,
		DetectionService:  detectionService,
		AnnotationService: annotationService,
	}
}

// Build создаёт адаптеры по конфигурации и собирает контейнер
func Build(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Container, error) {
	images, err := newStorage(cfg)
	if err != nil {
		return nil, err
	}

	renderer, err := vision.NewRenderer(cfg.BoxColor, cfg.StrokeWidth)
	if err != nil {
		return nil, err
	}

	var closers []io.Closer
	var detector port.ObjectDetector

	switch cfg.DetectorBackend {
	case config.DetectorGoCV:
		d, err := vision.NewGoCVDetector(cfg.ModelPath, cfg.ModelConfigPath, cfg.LabelsPath)
		if err != nil {
			// Без модели сервис поднимается, но детекция отвечает DetectionUnavailable.
			log.WithError(err).Error("Failed to load detection model")
		} else {
			detector = d
			closers = append(closers, d)
		}
	default:
		remote := vision.NewRemoteDetector(cfg.InferenceURL, cfg.DetectTimeout)
		checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := remote.CheckHealth(checkCtx); err != nil {
			log.WithError(err).Warn("Inference service not available")
		}
		cancel()
		detector = remote
	}

	c := New(log, storage.NewMemoryUserRepository(), images, detector, renderer, Options{
		MaxUploadSize: cfg.MaxUploadSize,
		Detection: app.DetectionOptions{
			Timeout:     cfg.DetectTimeout,
			Concurrency: cfg.DetectorConcurrency,
			MinScore:    cfg.MinScore,
		},
	})
	c.closers = closers

	return c, nil
}

// Close освобождает ресурсы адаптеров
func (c *Container) Close() error {
	var firstErr error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newStorage(cfg *config.Config) (port.ImageStorage, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		return storage.NewMemoryStorage(), nil
	case config.StorageS3:
		s, err := storage.NewS3Storage(storage.S3Config{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.AWSBucketName,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
			Prefix:          cfg.AWSPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 storage: %w", err)
		}
		return s, nil
	default:
		return storage.NewFileStorage(cfg.UploadDir)
	}
}
