package storage

import (
	"context"
	"fmt"
	"sync"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/domain/port"
)

// MemoryStorage in-memory хранилище изображений
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

// NewMemoryStorage создаёт пустое in-memory хранилище
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		objects: make(map[string][]byte),
	}
}

// Put сохраняет копию данных под новым ключом
func (s *MemoryStorage) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.objects[key]; exists {
		return fmt.Errorf("put %q: %w", key, entity.ErrKeyExists)
	}

	s.objects[key] = append([]byte(nil), data...)
	return nil
}

// Get возвращает копию данных по ключу
func (s *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	data, exists := s.objects[key]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("get %q: %w", key, entity.ErrNotFound)
	}

	return append([]byte(nil), data...), nil
}

// Len возвращает количество сохранённых объектов
func (s *MemoryStorage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Keys возвращает все сохранённые ключи
func (s *MemoryStorage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}

var _ port.ImageStorage = (*MemoryStorage)(nil)
