package rest

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/infrastructure/logger"
)

// ErrorResponse тело ответа с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// Ошибки, которые клиент может исправить сам. Сообщение отдаётся как есть.
var userErrors = []errorMapping{
	{entity.ErrMissingFile, fiber.StatusBadRequest, "MISSING_FILE", "No file part in the request"},
	{entity.ErrEmptyFilename, fiber.StatusBadRequest, "EMPTY_FILENAME", "No selected file"},
	{entity.ErrUnsupportedExtension, fiber.StatusBadRequest, "UNSUPPORTED_EXTENSION", "Unsupported file type. Allowed: png, jpg, jpeg"},
	{entity.ErrPayloadTooLarge, fiber.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "File is too large"},
	{entity.ErrUnreadableImage, fiber.StatusUnprocessableEntity, "UNREADABLE_IMAGE", "File is not a readable image"},
	{entity.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "Image not found"},
}

// handleError переводит доменную ошибку в HTTP-ответ. Детали инфраструктурных ошибок остаются в логе.
func (s *Server) handleError(c *fiber.Ctx, err error, operation string) error {
	ctx := c.UserContext()
	fields := logrus.Fields{
		"error":     err.Error(),
		"path":      c.Path(),
		"operation": operation,
	}

	for _, m := range userErrors {
		if errors.Is(err, m.target) {
			logger.FromContext(ctx, s.log).WithFields(fields).Warn("Request rejected")
			return c.Status(m.status).JSON(ErrorResponse{Error: m.message, Code: m.code})
		}
	}

	if errors.Is(err, entity.ErrDetectionUnavailable) {
		traceID := logger.ErrorWithTraceID(ctx, s.log, fields, "Detection unavailable")
		return c.Status(fiber.StatusServiceUnavailable).JSON(ErrorResponse{
			Error:   "Detection service is temporarily unavailable",
			Code:    "DETECTION_UNAVAILABLE",
			TraceID: traceID,
		})
	}

	traceID := logger.ErrorWithTraceID(ctx, s.log, fields, "Unexpected error")
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "An unexpected error occurred",
		Code:    "INTERNAL_ERROR",
		TraceID: traceID,
	})
}

// fiberErrorHandler отвечает JSON на ошибки самого fiber: неизвестный маршрут, превышение BodyLimit.
func (s *Server) fiberErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		resp := ErrorResponse{Error: fe.Message}
		if fe.Code == fiber.StatusRequestEntityTooLarge {
			resp.Code = "PAYLOAD_TOO_LARGE"
		}
		return c.Status(fe.Code).JSON(resp)
	}
	return s.handleError(c, err, "fiber")
}
