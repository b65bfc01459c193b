package entity

import "errors"

// Ошибки приёма файла, их может исправить пользователь.
var (
	ErrMissingFile          = errors.New("missing file")
	ErrEmptyFilename        = errors.New("empty filename")
	ErrUnsupportedExtension = errors.New("unsupported extension")
	ErrPayloadTooLarge      = errors.New("payload too large")
)

var (
	// ErrUnreadableImage файл не декодируется как растровое изображение.
	ErrUnreadableImage = errors.New("unreadable image")
	// ErrDetectionUnavailable детектор недоступен, не загрузился или не уложился в таймаут.
	ErrDetectionUnavailable = errors.New("detection unavailable")
)

// Ошибки хранилища.
var (
	ErrNotFound  = errors.New("not found")
	ErrKeyExists = errors.New("key already exists")
)

// ErrBusy предыдущее изображение пользователя ещё обрабатывается.
var ErrBusy = errors.New("previous image is still processing")

// IsUserError сообщает, может ли пользователь исправить ошибку повторной загрузкой.
func IsUserError(err error) bool {
	return errors.Is(err, ErrMissingFile) ||
		errors.Is(err, ErrEmptyFilename) ||
		errors.Is(err, ErrUnsupportedExtension) ||
		errors.Is(err, ErrPayloadTooLarge) ||
		errors.Is(err, ErrUnreadableImage)
}
