package app

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/infrastructure/logger"
	"inventory-vision/internal/infrastructure/storage"
	"inventory-vision/internal/infrastructure/vision"
)

// countingStorage считает записи поверх in-memory хранилища
type countingStorage struct {
	*storage.MemoryStorage
	puts atomic.Int32
}

func newCountingStorage() *countingStorage {
	return &countingStorage{MemoryStorage: storage.NewMemoryStorage()}
}

func (s *countingStorage) Put(ctx context.Context, key string, data []byte) error {
	s.puts.Add(1)
	return s.MemoryStorage.Put(ctx, key, data)
}

// fakeDetector возвращает заранее заданный ответ и следит за параллельными вызовами
type fakeDetector struct {
	raw   []entity.RawDetection
	err   error
	delay time.Duration

	calls    atomic.Int32
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (f *fakeDetector) Infer(ctx context.Context, imageData []byte) ([]entity.RawDetection, error) {
	f.calls.Add(1)

	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return f.raw, f.err
}

func (f *fakeDetector) peakInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 2), G: uint8(y * 2), B: 90, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func newTestRenderer(t *testing.T) *vision.Renderer {
	t.Helper()
	r, err := vision.NewRenderer(vision.DefaultBoxColor, vision.DefaultStrokeWidth)
	require.NoError(t, err)
	return r
}

type testPipeline struct {
	storage  *countingStorage
	detector *fakeDetector
	pipeline *PipelineService
}

func newTestPipeline(t *testing.T, detector *fakeDetector) *testPipeline {
	t.Helper()
	log := logger.Discard()
	store := newCountingStorage()

	intake := NewIntakeService(store, log)
	detection := NewDetectionService(store, detector, log, DetectionOptions{Timeout: time.Second, Concurrency: 1})
	annotation := NewAnnotationService(store, newTestRenderer(t), log)

	return &testPipeline{
		storage:  store,
		detector: detector,
		pipeline: NewPipelineService(intake, detection, annotation, log, DefaultMaxUploadSize),
	}
}
