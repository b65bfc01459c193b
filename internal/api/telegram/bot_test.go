package telegram

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"inventory-vision/internal/domain/entity"
)

func TestFormatCaption_Empty(t *testing.T) {
	require.Equal(t, msgNoObjects, formatCaption(nil))
}

func TestFormatCaption_ListsDetections(t *testing.T) {
	caption := formatCaption([]entity.Detection{
		{Label: "cat", Score: 0.87},
		{Label: entity.UnknownLabel, Score: 0},
	})

	require.Equal(t, "🔎 Найдено объектов: 2\n1. cat (0.87)\n2. Unknown (0.00)", caption)
}

func TestFormatCaption_Truncated(t *testing.T) {
	detections := make([]entity.Detection, 50)
	for i := range detections {
		detections[i] = entity.Detection{Label: fmt.Sprintf("box-%d", i), Score: 0.5}
	}

	caption := formatCaption(detections)
	require.Contains(t, caption, "20. box-19 (0.50)")
	require.NotContains(t, caption, "21. ")
	require.True(t, strings.HasSuffix(caption, "…и ещё 30"))
}

func TestFormatCaption_FitsTelegramLimit(t *testing.T) {
	detections := make([]entity.Detection, 15)
	for i := range detections {
		detections[i] = entity.Detection{Label: strings.Repeat("x", 200), Score: 0.9}
	}

	caption := formatCaption(detections)
	require.LessOrEqual(t, utf8.RuneCountInString(caption), captionLimit)
	require.Contains(t, caption, "…и ещё")
}

func TestUserMessage(t *testing.T) {
	const limit = 16 << 20

	require.Equal(t, msgUnsupportedFile, userMessage(fmt.Errorf("wrap: %w", entity.ErrUnsupportedExtension), limit))
	require.Equal(t, "🚫 Файл слишком большой. Максимум 16 МБ.", userMessage(entity.ErrPayloadTooLarge, limit))
	require.Equal(t, msgUnreadableImage, userMessage(entity.ErrUnreadableImage, limit))
	require.Equal(t, msgDetectorDown, userMessage(entity.ErrDetectionUnavailable, limit))
	require.Equal(t, msgMissingFile, userMessage(entity.ErrMissingFile, limit))
	require.Equal(t, msgEmptyFilename, userMessage(entity.ErrEmptyFilename, limit))
	require.Equal(t, msgProcessingError, userMessage(errors.New("disk full at /var/data"), limit))
}

func TestImageFromMessage(t *testing.T) {
	msg := &tgbotapi.Message{Photo: []tgbotapi.PhotoSize{
		{FileID: "small", FileSize: 100},
		{FileID: "large", FileSize: 900},
	}}
	upload, fileID, size, ok := imageFromMessage(msg)
	require.True(t, ok)
	require.Equal(t, photoFilename, upload.Filename)
	require.Equal(t, "large", fileID)
	require.Equal(t, 900, size)

	msg = &tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", FileName: "Shelf.JPEG", FileSize: 42}}
	upload, fileID, size, ok = imageFromMessage(msg)
	require.True(t, ok)
	require.Equal(t, "Shelf.JPEG", upload.Filename)
	require.Equal(t, "doc", fileID)
	require.Equal(t, 42, size)

	_, _, _, ok = imageFromMessage(&tgbotapi.Message{Text: "hello"})
	require.False(t, ok)
}

func TestCommandReply(t *testing.T) {
	require.Equal(t, msgCancelled, commandReply(nil, msgCancelled))
	require.Equal(t, msgBusy, commandReply(fmt.Errorf("cancel: %w", entity.ErrBusy), msgCancelled))
	require.Equal(t, msgProcessingError, commandReply(errors.New("repository down"), msgCancelled))
}

func TestTextReply_DependsOnState(t *testing.T) {
	require.Equal(t, msgUseDetect, textReply(entity.StateMainMenu))
	require.Equal(t, msgSendImage, textReply(entity.StateAwaitingImage))
	require.Equal(t, msgBusy, textReply(entity.StateProcessing))
}
