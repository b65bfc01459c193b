package port

import "context"

// ImageStorage хранилище изображений по непрозрачному ключу
type ImageStorage interface {
	// Put записывает данные под новым ключом, существующий ключ не перезаписывается
	Put(ctx context.Context, key string, data []byte) error

	// Get возвращает данные по ключу или entity.ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)
}
