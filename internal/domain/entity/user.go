package entity

// UserState этап диалога пользователя с ботом
type UserState string

const (
	StateMainMenu      UserState = "main_menu"      // Ждём команду
	StateAwaitingImage UserState = "awaiting_image" // Пользователь вызвал /detect
	StateProcessing    UserState = "processing"     // Изображение в конвейере
)

// User собеседник бота и его последний результат
type User struct {
	ID     int64 // Telegram User ID
	ChatID int64 // Telegram Chat ID
	State  UserState

	// LastResult ключ последней размеченной копии, пусто пока распознаваний не было
	LastResult string
	Processed  int
}

func NewUser(userID, chatID int64) *User {
	return &User{
		ID:     userID,
		ChatID: chatID,
		State:  StateMainMenu,
	}
}

func (u *User) SetState(state UserState) {
	u.State = state
}

// IsBusy сообщает, что изображение пользователя ещё обрабатывается
func (u *User) IsBusy() bool {
	return u.State == StateProcessing
}

// Finish возвращает пользователя в меню и запоминает ключ результата
func (u *User) Finish(annotatedKey string) {
	u.State = StateMainMenu
	u.LastResult = annotatedKey
	u.Processed++
}

// HasResult есть ли что показать по команде /last
func (u *User) HasResult() bool {
	return u.LastResult != ""
}
