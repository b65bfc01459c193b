package storage

import (
	"context"
	"sync"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/domain/port"
)

// MemoryUserRepository хранит состояние диалогов бота в памяти процесса.
// Наружу отдаются копии, поэтому изменения видны другим горутинам только после Save.
type MemoryUserRepository struct {
	mu    sync.Mutex
	users map[int64]entity.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]entity.User),
	}
}

// Get возвращает копию пользователя, при первом обращении создаёт его в главном меню
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[userID]
	if !exists {
		user = *entity.NewUser(userID, chatID)
		r.users[userID] = user
	}

	return &user, nil
}

func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	r.users[user.ID] = *user
	r.mu.Unlock()

	return nil
}

var _ port.UserRepository = (*MemoryUserRepository)(nil)
