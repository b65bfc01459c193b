package app

import (
	"context"
	"sync"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/domain/port"
)

// UserService ведёт состояние диалогов бота. Чтение и запись пользователя идут под одним мьютексом,
// поэтому два сообщения одного пользователя не проходят проверку занятости одновременно.
type UserService struct {
	repo port.UserRepository
	mu   sync.Mutex
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

// update читает пользователя, применяет fn и сохраняет, если fn вернула true
func (s *UserService) update(ctx context.Context, userID, chatID int64, fn func(u *entity.User) bool) (*entity.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.repo.Get(ctx, userID, chatID)
	if err != nil {
		return nil, false, err
	}
	if !fn(user) {
		return user, false, nil
	}
	if err := s.repo.Save(ctx, user); err != nil {
		return nil, false, err
	}
	return user, true, nil
}

// setIdle переключает состояние вне обработки. Пока изображение в конвейере, возвращает ErrBusy и ничего не меняет.
func (s *UserService) setIdle(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	user, changed, err := s.update(ctx, userID, chatID, func(u *entity.User) bool {
		if u.IsBusy() {
			return false
		}
		u.SetState(state)
		return true
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return user, entity.ErrBusy
	}
	return user, nil
}

// BeginDetect переводит пользователя в ожидание изображения (/detect)
func (s *UserService) BeginDetect(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.setIdle(ctx, userID, chatID, entity.StateAwaitingImage)
}

// Cancel возвращает пользователя в меню (/cancel, /start)
func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.setIdle(ctx, userID, chatID, entity.StateMainMenu)
}

// TryStartProcessing переводит пользователя в обработку, если он ещё не занят.
// Возвращает false, если предыдущее изображение ещё обрабатывается.
func (s *UserService) TryStartProcessing(ctx context.Context, userID, chatID int64) (bool, error) {
	_, started, err := s.update(ctx, userID, chatID, func(u *entity.User) bool {
		if u.IsBusy() {
			return false
		}
		u.SetState(entity.StateProcessing)
		return true
	})
	return started, err
}

// FinishProcessing возвращает пользователя в меню и запоминает ключ размеченной копии для /last
func (s *UserService) FinishProcessing(ctx context.Context, userID, chatID int64, annotatedKey string) (*entity.User, error) {
	user, _, err := s.update(ctx, userID, chatID, func(u *entity.User) bool {
		u.Finish(annotatedKey)
		return true
	})
	return user, err
}

// AbortProcessing снимает занятость после неудачной обработки, результат не запоминается
func (s *UserService) AbortProcessing(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	user, _, err := s.update(ctx, userID, chatID, func(u *entity.User) bool {
		u.SetState(entity.StateMainMenu)
		return true
	})
	return user, err
}
