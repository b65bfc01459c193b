package port

import (
	"context"

	"inventory-vision/internal/domain/entity"
)

// UserRepository хранит состояние диалогов бота.
// Реализации отдают копии: изменения пользователя видны только после Save.
type UserRepository interface {
	// Get возвращает пользователя, при первом обращении создаёт его в StateMainMenu
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	Save(ctx context.Context, user *entity.User) error
}
