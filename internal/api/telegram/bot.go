package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	app "inventory-vision/internal/application"
	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/domain/port"
	"inventory-vision/internal/infrastructure/logger"
)

const (
	msgStart = `👋 Привет! Я бот для поиска объектов на фотографиях склада.

📸 Отправьте мне фото или изображение файлом (png, jpg, jpeg), и я отмечу найденные предметы рамками.

📋 Команды:
/detect — начать распознавание
/last — прислать последний результат
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте фото или файл изображения
2️⃣ Бот найдёт на нём объекты
3️⃣ Вы получите изображение с рамками и список: класс и уверенность

💡 Рекомендации:
• Снимайте при хорошем освещении
• Отправляйте файлом, чтобы не терять качество
• Размер файла не больше %d МБ

📋 Команды:
/detect — начать распознавание
/last — прислать последний результат
/cancel — отменить операцию`

	msgAwaitingImage      = "📸 Отправьте фото или файл изображения для распознавания."
	msgCancelled          = "❌ Операция отменена. Отправьте /detect для нового распознавания."
	msgSendImage          = "📸 Пожалуйста, отправьте фото или файл изображения."
	msgUnknownCommand     = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing         = "⏳ Обрабатываю изображение..."
	msgBusy               = "⏳ Предыдущее изображение ещё обрабатывается, подождите."
	msgNoObjects          = "✅ Объекты не обнаружены."
	msgFoundObjects       = "🔎 Найдено объектов: %d"
	msgMoreObjects        = "…и ещё %d"
	msgProcessingError    = "⚠️ Не удалось обработать изображение. Попробуйте позже."
	msgDetectorDown       = "⚠️ Сервис распознавания временно недоступен. Попробуйте позже."
	msgUnsupportedFile    = "🚫 Неподдерживаемый тип файла. Допустимы: png, jpg, jpeg."
	msgFileTooLarge       = "🚫 Файл слишком большой. Максимум %d МБ."
	msgUnreadableImage    = "🚫 Не удалось прочитать изображение. Возможно, файл повреждён."
	msgMissingFile        = "🚫 Файл не получен. Отправьте изображение ещё раз."
	msgEmptyFilename      = "🚫 У файла нет имени. Переименуйте его и отправьте снова."
	msgNoLastResult       = "📭 Вы ещё ничего не распознавали. Отправьте фото."
	msgLastResult         = "🗂 Последний результат"
	msgUseDetect          = "💬 Чтобы распознать объекты, отправьте /detect или сразу фото."
	photoFilename         = "photo.jpg"
	captionLimit          = 1024
	maxListedDetections   = 20
	downloadTimeout       = 60 * time.Second
	updatesTimeoutSeconds = 60
)

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	users    *app.UserService
	pipeline *app.PipelineService
	storage  port.ImageStorage
	http     *http.Client
	log      *logrus.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, log *logrus.Logger, users *app.UserService, pipeline *app.PipelineService, storage port.ImageStorage) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.WithField("account", api.Self.UserName).Info("Authorized on Telegram")

	return &Bot{
		api:      api,
		users:    users,
		pipeline: pipeline,
		storage:  storage,
		http:     &http.Client{Timeout: downloadTimeout},
		log:      log,
	}, nil
}

// Run запускает основной цикл обработки сообщений до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updatesTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}

			// Каждое сообщение в своей горутине, повторную загрузку отсекает состояние пользователя.
			go b.handleMessage(logger.WithRequestID(ctx, fmt.Sprintf("tg-%d", update.UpdateID)), update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if upload, fileID, size, ok := imageFromMessage(msg); ok {
		b.handleImage(ctx, msg, upload, fileID, size)
		return
	}

	// Текстовое сообщение (не команда): подсказка зависит от этапа диалога
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		logger.FromContext(ctx, b.log).WithError(err).Error("Failed to get user")
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}
	b.sendMessage(msg.Chat.ID, textReply(user.State))
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	var err error

	switch msg.Command() {
	case "start":
		_, err = b.users.Cancel(ctx, msg.From.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, commandReply(err, msgStart))

	case "help":
		b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgHelp, b.pipeline.MaxUploadSize()>>20))

	case "detect":
		_, err = b.users.BeginDetect(ctx, msg.From.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, commandReply(err, msgAwaitingImage))

	case "cancel":
		_, err = b.users.Cancel(ctx, msg.From.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, commandReply(err, msgCancelled))

	case "last":
		b.handleLast(ctx, msg)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}

	if err != nil && !errors.Is(err, entity.ErrBusy) {
		logger.FromContext(ctx, b.log).WithError(err).Error("Failed to update user state")
	}
}

// commandReply ответ на команду, меняющую состояние. Во время обработки состояние не трогаем.
func commandReply(err error, done string) string {
	switch {
	case err == nil:
		return done
	case errors.Is(err, entity.ErrBusy):
		return msgBusy
	default:
		return msgProcessingError
	}
}

// textReply подсказка на обычный текст
func textReply(state entity.UserState) string {
	switch state {
	case entity.StateAwaitingImage:
		return msgSendImage
	case entity.StateProcessing:
		return msgBusy
	default:
		return msgUseDetect
	}
}

// handleImage прогоняет изображение через конвейер и отправляет размеченную копию
func (b *Bot) handleImage(ctx context.Context, msg *tgbotapi.Message, upload entity.UploadedImage, fileID string, size int) {
	entry := logger.FromContext(ctx, b.log).WithFields(logrus.Fields{
		"user_id":  msg.From.ID,
		"filename": upload.Filename,
	})

	started, err := b.users.TryStartProcessing(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		entry.WithError(err).Error("Failed to update user state")
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}
	if !started {
		b.sendMessage(msg.Chat.ID, msgBusy)
		return
	}
	finished := false
	defer func() {
		if finished {
			return
		}
		if _, err := b.users.AbortProcessing(ctx, msg.From.ID, msg.Chat.ID); err != nil {
			entry.WithError(err).Error("Failed to reset user state")
		}
	}()

	// Размер известен до скачивания, лишний трафик не нужен
	if int64(size) > b.pipeline.MaxUploadSize() {
		b.sendMessage(msg.Chat.ID, userMessage(entity.ErrPayloadTooLarge, b.pipeline.MaxUploadSize()))
		return
	}

	b.sendMessage(msg.Chat.ID, msgProcessing)

	upload.Content, err = b.downloadFile(ctx, fileID)
	if err != nil {
		entry.WithError(err).Error("Failed to download file")
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	result, err := b.pipeline.Process(ctx, upload)
	if err != nil {
		if !entity.IsUserError(err) {
			logger.ErrorWithTraceID(ctx, b.log, logger.Fields{"error": err.Error()}, "Failed to process image")
		}
		b.sendMessage(msg.Chat.ID, userMessage(err, b.pipeline.MaxUploadSize()))
		return
	}

	if _, err := b.users.FinishProcessing(ctx, msg.From.ID, msg.Chat.ID, result.AnnotatedImage.Key); err != nil {
		entry.WithError(err).Error("Failed to save user result")
	} else {
		finished = true
	}

	b.sendAnnotated(ctx, msg, result.AnnotatedImage.Key, result.AnnotatedImage.Filename, formatCaption(result.Detections))
}

// handleLast повторно отправляет последнюю размеченную копию пользователя
func (b *Bot) handleLast(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		logger.FromContext(ctx, b.log).WithError(err).Error("Failed to get user")
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}
	if !user.HasResult() {
		b.sendMessage(msg.Chat.ID, msgNoLastResult)
		return
	}

	b.sendAnnotated(ctx, msg, user.LastResult, user.LastResult, msgLastResult)
}

// sendAnnotated читает изображение из хранилища и отправляет его ответом на сообщение
func (b *Bot) sendAnnotated(ctx context.Context, msg *tgbotapi.Message, key, filename, caption string) {
	entry := logger.FromContext(ctx, b.log).WithField("key", key)

	data, err := b.storage.Get(ctx, key)
	if err != nil {
		entry.WithError(err).Error("Failed to load annotated image")
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	photo := tgbotapi.NewPhoto(msg.Chat.ID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	photo.Caption = caption
	photo.ReplyToMessageID = msg.MessageID

	if _, err := b.api.Send(photo); err != nil {
		entry.WithError(err).Error("Failed to send photo")
	}
}

// imageFromMessage находит изображение в сообщении: фото или файл-документ
func imageFromMessage(msg *tgbotapi.Message) (entity.UploadedImage, string, int, bool) {
	if len(msg.Photo) > 0 {
		// Берём фото с максимальным разрешением
		photo := msg.Photo[len(msg.Photo)-1]
		return entity.UploadedImage{Filename: photoFilename}, photo.FileID, photo.FileSize, true
	}

	if msg.Document != nil {
		return entity.UploadedImage{Filename: msg.Document.FileName}, msg.Document.FileID, msg.Document.FileSize, true
	}

	return entity.UploadedImage{}, "", 0, false
}

// userMessage текст для пользователя. Детали инфраструктурных ошибок не раскрываются.
func userMessage(err error, maxUploadSize int64) string {
	switch {
	case errors.Is(err, entity.ErrMissingFile):
		return msgMissingFile
	case errors.Is(err, entity.ErrEmptyFilename):
		return msgEmptyFilename
	case errors.Is(err, entity.ErrUnsupportedExtension):
		return msgUnsupportedFile
	case errors.Is(err, entity.ErrPayloadTooLarge):
		return fmt.Sprintf(msgFileTooLarge, maxUploadSize>>20)
	case errors.Is(err, entity.ErrUnreadableImage):
		return msgUnreadableImage
	case errors.Is(err, entity.ErrDetectionUnavailable):
		return msgDetectorDown
	default:
		return msgProcessingError
	}
}

// formatCaption список найденных объектов, не длиннее лимита подписи Telegram
func formatCaption(detections []entity.Detection) string {
	if len(detections) == 0 {
		return msgNoObjects
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, msgFoundObjects, len(detections))

	for i, d := range detections {
		if i == maxListedDetections {
			fmt.Fprintf(&sb, "\n"+msgMoreObjects, len(detections)-i)
			break
		}
		line := fmt.Sprintf("\n%d. %s", i+1, d.Caption())
		if len([]rune(sb.String()+line)) > captionLimit-32 {
			fmt.Fprintf(&sb, "\n"+msgMoreObjects, len(detections)-i)
			break
		}
		sb.WriteString(line)
	}

	return sb.String()
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.api.Token), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	// Ограничиваем чтение на байт больше лимита, остальное отклонит приём файла
	data, err := io.ReadAll(io.LimitReader(resp.Body, b.pipeline.MaxUploadSize()+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.WithError(err).Error("Failed to send message")
	}
}
