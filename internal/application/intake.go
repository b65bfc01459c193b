package app

import (
	"context"
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/domain/port"
)

// DefaultMaxUploadSize лимит размера загрузки, 16 MiB.
const DefaultMaxUploadSize int64 = 16 << 20

var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
}

// IntakeService проверяет загрузку и сохраняет её под случайным ключом.
type IntakeService struct {
	storage  port.ImageStorage
	log      *logrus.Logger
	newToken func() (string, error)
}

// NewIntakeService создаёт сервис приёма файлов
func NewIntakeService(storage port.ImageStorage, log *logrus.Logger) *IntakeService {
	return &IntakeService{
		storage:  storage,
		log:      log,
		newToken: randomToken,
	}
}

// ValidateAndStore проверяет файл и записывает его в хранилище ровно один раз.
// Имя файла от клиента используется только для расширения и отображения.
func (s *IntakeService) ValidateAndStore(ctx context.Context, filename string, content []byte, maxSize int64) (entity.StoredImageRef, error) {
	if len(content) == 0 {
		return entity.StoredImageRef{}, entity.ErrMissingFile
	}

	name := SanitizeFilename(filename)
	if name == "" {
		return entity.StoredImageRef{}, entity.ErrEmptyFilename
	}

	ext, ok := allowedExtension(name)
	if !ok {
		return entity.StoredImageRef{}, fmt.Errorf("%w: %q, allowed: png, jpg, jpeg", entity.ErrUnsupportedExtension, ext)
	}

	if maxSize > 0 && int64(len(content)) > maxSize {
		return entity.StoredImageRef{}, fmt.Errorf("%w: %d bytes, limit %d", entity.ErrPayloadTooLarge, len(content), maxSize)
	}

	token, err := s.newToken()
	if err != nil {
		return entity.StoredImageRef{}, fmt.Errorf("generate storage key: %w", err)
	}

	ref := entity.StoredImageRef{
		Key:      token + "." + ext,
		Filename: name,
	}
	if err := s.storage.Put(ctx, ref.Key, content); err != nil {
		return entity.StoredImageRef{}, fmt.Errorf("store upload: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"key":      ref.Key,
		"filename": ref.Filename,
		"size":     len(content),
	}).Debug("Upload stored")

	return ref, nil
}

// SanitizeFilename отбрасывает каталоги и управляющие символы из имени файла.
func SanitizeFilename(filename string) string {
	name := strings.ReplaceAll(filename, `\`, "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	switch name {
	case ".", "..", "/":
		return ""
	}
	return name
}

// allowedExtension возвращает расширение после последней точки в нижнем регистре.
func allowedExtension(name string) (string, bool) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "", false
	}
	ext := strings.ToLower(name[i+1:])
	_, ok := allowedExtensions[ext]
	return ext, ok
}

// randomToken 128-битный случайный токен в виде 32 hex-символов.
func randomToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
