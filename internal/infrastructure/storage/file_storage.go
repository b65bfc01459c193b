package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/domain/port"
)

// FileStorage хранит изображения файлами в одной директории
type FileStorage struct {
	dir string
}

// NewFileStorage создаёт хранилище и директорию, если её нет
func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStorage{dir: dir}, nil
}

// Dir возвращает директорию хранилища
func (s *FileStorage) Dir() string {
	return s.dir
}

// Put создаёт новый файл; существующий файл не перезаписывается
func (s *FileStorage) Put(ctx context.Context, key string, data []byte) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("put %q: %w", key, entity.ErrKeyExists)
		}
		return fmt.Errorf("put %q: %w", key, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %q: %w", key, err)
	}

	return f.Close()
}

// Get читает файл по ключу
func (s *FileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("get %q: %w", key, entity.ErrNotFound)
		}
		return nil, fmt.Errorf("get %q: %w", key, err)
	}

	return data, nil
}

// path строит путь к файлу; ключи с разделителями пути отклоняются.
func (s *FileStorage) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.ContainsRune(key, 0) {
		return "", fmt.Errorf("invalid key %q: %w", key, entity.ErrNotFound)
	}
	return filepath.Join(s.dir, key), nil
}

var _ port.ImageStorage = (*FileStorage)(nil)
