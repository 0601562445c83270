package integrations

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageImageDimensions(t *testing.T) {
	page := pngPage(t, 0, 40, 60)

	w, h, err := page.Dimensions()
	require.NoError(t, err)
	assert.Equal(t, 40, w)
	assert.Equal(t, 60, h)

	_, _, err = PageImage{Index: 2, Content: []byte("not an image")}.Dimensions()
	assert.ErrorContains(t, err, "page 3")
}

func TestPageImageExt(t *testing.T) {
	assert.Equal(t, ".png", PageImage{ContentType: "image/png"}.Ext())
	assert.Equal(t, ".webp", PageImage{ContentType: "image/webp; charset=binary"}.Ext())
	assert.Equal(t, ".jpg", PageImage{ContentType: "image/jpeg"}.Ext())
	// sniffed when the server does not say
	assert.Equal(t, ".png", PageImage{Content: pngPage(t, 0, 1, 1).Content}.Ext())
}

func TestRowsFor(t *testing.T) {
	assert.Equal(t, 30, RowsFor(800, 1200, 40))
	assert.Equal(t, 1, RowsFor(0, 100, 40))
	assert.Equal(t, 1, RowsFor(1000, 1, 10))
}

func TestFitDimensions(t *testing.T) {
	tests := []struct {
		name         string
		w, h, mw, mh int
		wantW, wantH int
	}{
		{"fits", 100, 200, 200, 400, 100, 200},
		{"width bound", 400, 200, 200, 0, 200, 100},
		{"height bound", 100, 400, 0, 200, 50, 200},
		{"both", 400, 400, 100, 200, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitDimensions(tt.w, tt.h, tt.mw, tt.mh)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func TestRenderHalfBlocks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 20))
	for y := 0; y < 20; y++ {
		for x := 0; x < 10; x++ {
			img.Set(x, y, color.White)
		}
	}

	out := RenderHalfBlocks(img, 10, 0)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 10)
	assert.Equal(t, 10, strings.Count(lines[0], "▀"))

	limited := RenderHalfBlocks(img, 10, 5)
	assert.Len(t, strings.Split(limited, "\n"), 5)

	assert.Empty(t, RenderHalfBlocks(img, 0, 0))
}
