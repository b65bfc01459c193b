package app

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"inventory-vision/internal/domain/entity"
)

// decodeImage декодирует растровое изображение или возвращает ErrUnreadableImage.
func decodeImage(data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrUnreadableImage, err)
	}
	return img, nil
}

// encodePNG кодирует без потерь, чтобы копия без рамок совпадала с исходником попиксельно.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
