package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/domain/port"
	"inventory-vision/internal/infrastructure/logger"
)

const DefaultDetectTimeout = 30 * time.Second

// DetectionOptions ограничения на вызов детектора
type DetectionOptions struct {
	Timeout     time.Duration // 0: без таймаута
	Concurrency int           // одновременных вызовов детектора, 1: строго по очереди
	MinScore    float64       // детекции с меньшей уверенностью отбрасываются, 0: без фильтра
}

// DetectionService оборачивает детектор: пул вызовов, таймаут и перевод ответа в Detection.
type DetectionService struct {
	storage  port.ImageStorage
	detector port.ObjectDetector
	log      *logrus.Logger
	timeout  time.Duration
	minScore float64
	pool     *semaphore.Weighted
}

// NewDetectionService создаёт адаптер детектора
func NewDetectionService(storage port.ImageStorage, detector port.ObjectDetector, log *logrus.Logger, opts DetectionOptions) *DetectionService {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	return &DetectionService{
		storage:  storage,
		detector: detector,
		log:      log,
		timeout:  opts.Timeout,
		minScore: opts.MinScore,
		pool:     semaphore.NewWeighted(int64(concurrency)),
	}
}

// Detect загружает изображение и возвращает детекции в порядке, выданном моделью.
func (s *DetectionService) Detect(ctx context.Context, ref entity.StoredImageRef) ([]entity.Detection, error) {
	data, err := s.storage.Get(ctx, ref.Key)
	if err != nil {
		return nil, fmt.Errorf("load image: %w", err)
	}

	if _, err := decodeImage(data); err != nil {
		return nil, err
	}

	if s.detector == nil {
		return nil, fmt.Errorf("%w: detector is not configured", entity.ErrDetectionUnavailable)
	}

	start := time.Now()
	raw, err := s.infer(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDetectionUnavailable, err)
	}

	detections := make([]entity.Detection, 0, len(raw))
	for _, r := range raw {
		d := r.ToDetection()
		if s.minScore > 0 && d.Score < s.minScore {
			continue
		}
		detections = append(detections, d)
	}

	logger.FromContext(ctx, s.log).WithFields(logrus.Fields{
		"key":        ref.Key,
		"raw":        len(raw),
		"detections": len(detections),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("Detection finished")

	return detections, nil
}

type inferResult struct {
	raw []entity.RawDetection
	err error
}

// infer занимает слот пула и ждёт детектор не дольше таймаута.
// Слот освобождается, только когда детектор действительно вернул управление.
func (s *DetectionService) infer(ctx context.Context, data []byte) ([]entity.RawDetection, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if err := s.pool.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for detector: %w", err)
	}

	done := make(chan inferResult, 1)
	go func() {
		defer s.pool.Release(1)
		raw, err := s.detector.Infer(ctx, data)
		done <- inferResult{raw: raw, err: err}
	}()

	select {
	case r := <-done:
		return r.raw, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("detector call: %w", ctx.Err())
	}
}
