package vision

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"inventory-vision/internal/domain/entity"
	"inventory-vision/internal/domain/port"
)

const (
	DefaultBoxColor    = "#ff0000"
	DefaultStrokeWidth = 2
	// DefaultTextOffset расстояние от верхней границы рамки до верха подписи.
	DefaultTextOffset = 10
)

// Renderer рисует рамки и подписи поверх копии изображения.
type Renderer struct {
	color      color.NRGBA
	stroke     int
	textOffset int
	face       font.Face
}

// NewRenderer создаёт рендерер с цветом в формате "#rrggbb" и толщиной линии в пикселях.
func NewRenderer(hexColor string, strokeWidth int) (*Renderer, error) {
	c, err := colorful.Hex(hexColor)
	if err != nil {
		return nil, fmt.Errorf("parse box color %q: %w", hexColor, err)
	}
	if strokeWidth < 1 {
		return nil, fmt.Errorf("stroke width must be positive, got %d", strokeWidth)
	}

	r, g, b := c.RGB255()
	return &Renderer{
		color:      color.NRGBA{R: r, G: g, B: b, A: 255},
		stroke:     strokeWidth,
		textOffset: DefaultTextOffset,
		face:       basicfont.Face7x13,
	}, nil
}

// Render копирует изображение и рисует на копии каждую детекцию по порядку.
func (r *Renderer) Render(src image.Image, detections []entity.Detection) image.Image {
	dst := imaging.Clone(src)
	for _, d := range detections {
		r.drawBox(dst, d.Box)
		r.drawCaption(dst, d)
	}
	return dst
}

// drawBox рисует контур внутрь от границ рамки, как PIL при width > 1.
func (r *Renderer) drawBox(dst *image.NRGBA, b entity.Box) {
	for i := 0; i < r.stroke; i++ {
		x0, y0 := b.XMin+i, b.YMin+i
		x1, y1 := b.XMax-i, b.YMax-i
		if x0 > x1 || y0 > y1 {
			return
		}
		r.hline(dst, x0, x1, y0)
		r.hline(dst, x0, x1, y1)
		r.vline(dst, y0, y1, x0)
		r.vline(dst, y0, y1, x1)
	}
}

// hline рисует только видимую часть отрезка, поэтому время не зависит от координат рамки.
func (r *Renderer) hline(dst *image.NRGBA, x0, x1, y int) {
	bounds := dst.Bounds()
	if y < bounds.Min.Y || y >= bounds.Max.Y {
		return
	}
	for x := max(x0, bounds.Min.X); x <= min(x1, bounds.Max.X-1); x++ {
		dst.SetNRGBA(x, y, r.color)
	}
}

func (r *Renderer) vline(dst *image.NRGBA, y0, y1, x int) {
	bounds := dst.Bounds()
	if x < bounds.Min.X || x >= bounds.Max.X {
		return
	}
	for y := max(y0, bounds.Min.Y); y <= min(y1, bounds.Max.Y-1); y++ {
		dst.SetNRGBA(x, y, r.color)
	}
}

// drawCaption пишет подпись над левым верхним углом рамки.
// У рамок возле верхнего края подпись уходит за холст и обрезается.
func (r *Renderer) drawCaption(dst *image.NRGBA, d entity.Detection) {
	top := d.Box.YMin - r.textOffset
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(r.color),
		Face: r.face,
		Dot:  fixed.P(d.Box.XMin, top+r.face.Metrics().Ascent.Ceil()),
	}
	drawer.DrawString(d.Caption())
}

var _ port.Renderer = (*Renderer)(nil)
