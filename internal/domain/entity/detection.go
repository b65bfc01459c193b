package entity

import "fmt"

const (
	// UnknownLabel подставляется, если детектор не вернул класс объекта.
	UnknownLabel = "Unknown"
)

// Box ограничивающий прямоугольник в пиксельных координатах
type Box struct {
	XMin int `json:"xmin"` // левая граница
	YMin int `json:"ymin"` // верхняя граница
	XMax int `json:"xmax"` // правая граница
	YMax int `json:"ymax"` // нижняя граница
}

// Normalized возвращает прямоугольник, у которого XMin <= XMax и YMin <= YMax.
func (b Box) Normalized() Box {
	if b.XMin > b.XMax {
		b.XMin, b.XMax = b.XMax, b.XMin
	}
	if b.YMin > b.YMax {
		b.YMin, b.YMax = b.YMax, b.YMin
	}
	return b
}

// Width возвращает ширину прямоугольника
func (b Box) Width() int {
	return b.XMax - b.XMin
}

// Height возвращает высоту прямоугольника
func (b Box) Height() int {
	return b.YMax - b.YMin
}

// Center возвращает координаты центра прямоугольника
func (b Box) Center() (x, y int) {
	return b.XMin + b.Width()/2, b.YMin + b.Height()/2
}

// Detection один найденный объект на изображении.
type Detection struct {
	Label string  `json:"label"`
	Score float64 `json:"score"` // уверенность в диапазоне [0, 1]
	Box   Box     `json:"box"`
}

// Caption текст подписи над рамкой, например "cat (0.87)".
func (d Detection) Caption() string {
	return fmt.Sprintf("%s (%.2f)", d.Label, d.Score)
}

// RawDetection ответ детектора как есть: класс и уверенность могут отсутствовать.
type RawDetection struct {
	Label *string  `json:"label,omitempty"`
	Score *float64 `json:"score,omitempty"`
	Box   Box      `json:"box"`
}

// ToDetection переводит сырой ответ в каноническую запись.
// Отсутствующие поля заменяются значениями по умолчанию, уверенность обрезается до [0, 1].
func (r RawDetection) ToDetection() Detection {
	d := Detection{
		Label: UnknownLabel,
		Score: 0,
		Box:   r.Box.Normalized(),
	}
	if r.Label != nil {
		d.Label = *r.Label
	}
	if r.Score != nil {
		d.Score = clampScore(*r.Score)
	}
	return d
}

func clampScore(s float64) float64 {
	switch {
	case s != s: // NaN
		return 0
	case s < 0:
		return 0
	case s > 1:
		return 1
	}
	return s
}
