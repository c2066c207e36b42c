package sprites

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/island-order-service/internal/items"
)

func writeSprite(t *testing.T, dir string, id uint16, size int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, fmt.Sprintf("%04x.png", id))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestComposeGrid(t *testing.T) {
	dir := t.TempDir()
	writeSprite(t, dir, 0x0FCB, 48)
	writeSprite(t, dir, 0x11A1, 48)

	c := NewComposer(dir, nil)
	data := c.ComposeGrid(items.Bundle{
		{ID: 0x0FCB, Count: 3},
		{ID: 0x11A1, Count: 1},
	})
	require.NotNil(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	// две колонки, одна строка
	assert.Equal(t, 2*cellSize+padding, img.Bounds().Dx())
	assert.Equal(t, cellSize+padding, img.Bounds().Dy())
}

func TestComposeGridWrapsRows(t *testing.T) {
	dir := t.TempDir()
	var bundle items.Bundle
	for i := 0; i < maxColumns+1; i++ {
		id := uint16(0x1000 + i)
		writeSprite(t, dir, id, 48)
		bundle = append(bundle, items.Item{ID: id, Count: 1})
	}

	data := NewComposer(dir, nil).ComposeGrid(bundle)
	require.NotNil(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, maxColumns*cellSize+padding, img.Bounds().Dx())
	assert.Equal(t, 2*cellSize+padding, img.Bounds().Dy())
}

func TestComposeGridScalesOddSprites(t *testing.T) {
	dir := t.TempDir()
	writeSprite(t, dir, 0x0FCB, 32) // не 48px

	data := NewComposer(dir, nil).ComposeGrid(items.Bundle{{ID: 0x0FCB, Count: 1}})
	require.NotNil(t, data)
}

func TestComposeGridUnavailable(t *testing.T) {
	bundle := items.Bundle{{ID: 0x0FCB, Count: 1}}

	assert.Nil(t, NewComposer("", nil).ComposeGrid(bundle))
	assert.Nil(t, NewComposer("/nonexistent/sprites", nil).ComposeGrid(bundle))

	// каталог есть, но ни одного подходящего спрайта
	assert.Nil(t, NewComposer(t.TempDir(), nil).ComposeGrid(bundle))

	// пустой заказ
	dir := t.TempDir()
	writeSprite(t, dir, 0x0FCB, 48)
	assert.Nil(t, NewComposer(dir, nil).ComposeGrid(nil))
}
