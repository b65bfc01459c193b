package rest

import (
	"io"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"

	"inventory-vision/internal/domain/entity"
)

const formFileField = "file"

// handleDetect принимает multipart-поле file и возвращает ResultRecord
func (s *Server) handleDetect(c *fiber.Ctx) error {
	upload, err := readUpload(c)
	if err != nil {
		return s.handleError(c, err, "read_upload")
	}

	result, err := s.pipeline.Process(c.UserContext(), upload)
	if err != nil {
		return s.handleError(c, err, "process_upload")
	}

	result.AnnotatedImage.URL = UploadsPrefix + result.AnnotatedImage.Key

	return c.Status(fiber.StatusOK).JSON(result)
}

// readUpload достаёт файл из формы. Часть без имени файла парсер кладёт в значения, а не в файлы.
func readUpload(c *fiber.Ctx) (entity.UploadedImage, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return entity.UploadedImage{}, entity.ErrMissingFile
	}

	files := form.File[formFileField]
	if len(files) == 0 {
		if _, ok := form.Value[formFileField]; ok {
			return entity.UploadedImage{}, entity.ErrEmptyFilename
		}
		return entity.UploadedImage{}, entity.ErrMissingFile
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return entity.UploadedImage{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return entity.UploadedImage{}, err
	}

	return entity.UploadedImage{Filename: fh.Filename, Content: data}, nil
}

// handleUpload отдаёт сохранённое изображение по ключу
func (s *Server) handleUpload(c *fiber.Ctx) error {
	key := c.Params("key")

	data, err := s.storage.Get(c.UserContext(), key)
	if err != nil {
		return s.handleError(c, err, "get_upload")
	}

	if ext := strings.TrimPrefix(path.Ext(key), "."); ext != "" {
		c.Type(ext)
	} else {
		c.Set(fiber.HeaderContentType, "application/octet-stream")
	}

	return c.Send(data)
}

// handleHealth проверяет процесс и, если задан, детектор
func (s *Server) handleHealth(c *fiber.Ctx) error {
	if s.health != nil {
		if err := s.health.CheckHealth(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":   "degraded",
				"detector": "unavailable",
			})
		}
	}

	return c.JSON(fiber.Map{"status": "ok"})
}
