package rest

import (
	"context"

	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	app "inventory-vision/internal/application"
	"inventory-vision/internal/domain/port"
)

const (
	// UploadsPrefix префикс URL, по которому отдаются сохранённые изображения
	UploadsPrefix = "/uploads/"

	// запас сверх лимита файла на заголовки multipart
	multipartOverhead = 1 << 20
)

// HealthChecker проверка доступности внешнего детектора
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// Options настройки HTTP-сервера
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	Health         HealthChecker // может быть nil
}

// Server HTTP API поверх конвейера обработки
type Server struct {
	app      *fiber.App
	pipeline *app.PipelineService
	storage  port.ImageStorage
	health   HealthChecker
	limiter  *rateLimiter
	log      *logrus.Logger
}

// New создаёт fiber-приложение и регистрирует маршруты
func New(log *logrus.Logger, pipeline *app.PipelineService, storage port.ImageStorage, opts Options) *Server {
	s := &Server{
		pipeline: pipeline,
		storage:  storage,
		health:   opts.Health,
		limiter:  newRateLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitBurst),
		log:      log,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "Inventory Vision",
		BodyLimit:             int(pipeline.MaxUploadSize() + multipartOverhead),
		StrictRouting:         true,
		CaseSensitive:         true,
		DisableStartupMessage: true,
		JSONEncoder:           jsoniter.Marshal,
		JSONDecoder:           jsoniter.Unmarshal,
		ErrorHandler:          s.fiberErrorHandler,
	})

	s.app.Use(s.requestIDMiddleware, s.accessLogMiddleware)
	s.routes()

	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get(UploadsPrefix+":key", s.handleUpload)

	v1 := s.app.Group("/api/v1")
	v1.Post("/detect", s.rateLimitMiddleware, s.handleDetect)
}

// App возвращает fiber-приложение, используется в тестах
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen блокирует до остановки сервера
func (s *Server) Listen(addr string) error {
	s.log.WithField("addr", addr).Info("HTTP server listening")
	return s.app.Listen(addr)
}

// Shutdown дожидается завершения активных запросов
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
