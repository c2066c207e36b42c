// Package sprites собирает PNG-сетку иконок заказанных предметов.
// Отсутствие каталога спрайтов или отдельных иконок — не ошибка:
// заказ никогда не блокируется из-за картинки.
package sprites

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/example/island-order-service/internal/items"
)

const (
	iconSize   = 48
	padding    = 6
	cellSize   = iconSize + padding
	maxColumns = 8
)

// фон в тон тёмной теме чата
var background = color.RGBA{R: 47, G: 49, B: 54, A: 255}

// Composer рисует сетку спрайтов из каталога с файлами вида "0fcb.png".
type Composer struct {
	dir string
	log *zap.Logger
}

func NewComposer(dir string, log *zap.Logger) *Composer {
	return &Composer{dir: dir, log: log}
}

// ComposeGrid возвращает PNG с иконками предметов или nil, если рисовать
// нечего либо нечем.
func (c *Composer) ComposeGrid(bundle items.Bundle) []byte {
	if c == nil || c.dir == "" {
		return nil
	}
	if st, err := os.Stat(c.dir); err != nil || !st.IsDir() {
		return nil
	}

	// группируем, сохраняя порядок первого появления
	var order []uint16
	counts := make(map[uint16]int)
	for _, it := range bundle {
		if counts[it.ID] == 0 {
			order = append(order, it.ID)
		}
		counts[it.ID] += it.Count
	}
	if len(order) == 0 {
		return nil
	}

	columns := len(order)
	if columns > maxColumns {
		columns = maxColumns
	}
	rows := (len(order) + maxColumns - 1) / maxColumns
	width := columns*cellSize + padding
	height := rows*cellSize + padding

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	drawn := 0
	for i, id := range order {
		col := i % maxColumns
		row := i / maxColumns
		x := padding + col*cellSize
		y := padding + row*cellSize

		icon := c.loadIcon(id)
		if icon == nil {
			continue
		}
		draw.Draw(canvas, image.Rect(x, y, x+iconSize, y+iconSize), icon, icon.Bounds().Min, draw.Over)
		if n := counts[id]; n > 1 {
			drawBadge(canvas, x, y, n)
		}
		drawn++
	}
	if drawn == 0 {
		return nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		if c.log != nil {
			c.log.Warn("sprite grid encode failed", zap.Error(err))
		}
		return nil
	}
	return buf.Bytes()
}

// loadIcon читает и при необходимости масштабирует спрайт до 48x48.
func (c *Composer) loadIcon(id uint16) image.Image {
	path := filepath.Join(c.dir, fmt.Sprintf("%04x.png", id))
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		if c.log != nil {
			c.log.Debug("bad sprite file", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	b := img.Bounds()
	if b.Dx() == iconSize && b.Dy() == iconSize {
		return img
	}
	return nearestScale(img, iconSize, iconSize)
}

// nearestScale — простое масштабирование по ближайшему соседу; для
// пиксельных иконок этого достаточно.
func nearestScale(src image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	for y := 0; y < h; y++ {
		sy := sb.Min.Y + y*sb.Dy()/h
		for x := 0; x < w; x++ {
			sx := sb.Min.X + x*sb.Dx()/w
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

// digits — растровый шрифт 3x5 для бейджа количества.
var digits = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b010, 0b010, 0b010}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

// drawBadge рисует «xN» в правом нижнем углу ячейки.
func drawBadge(canvas *image.RGBA, cellX, cellY, count int) {
	if count > 99 {
		count = 99
	}
	text := fmt.Sprintf("%d", count)

	const scale = 2
	w := len(text)*4*scale + 2
	h := 5*scale + 2
	x0 := cellX + iconSize - w
	y0 := cellY + iconSize - h

	// подложка, чтобы цифры читались на любом спрайте
	draw.Draw(canvas, image.Rect(x0, y0, cellX+iconSize, cellY+iconSize),
		image.NewUniform(color.RGBA{A: 200}), image.Point{}, draw.Over)

	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	for i, r := range text {
		if r < '0' || r > '9' {
			continue
		}
		glyph := digits[r-'0']
		gx := x0 + 1 + i*4*scale
		for row := 0; row < 5; row++ {
			for col := 0; col < 3; col++ {
				if glyph[row]&(1<<(2-col)) == 0 {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						canvas.Set(gx+col*scale+dx, y0+1+row*scale+dy, white)
					}
				}
			}
		}
	}
}
