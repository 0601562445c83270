package integrations

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"net/http"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// PageImage is one downloaded page of a chapter.
type PageImage struct {
	Index       int // 0-based position in the chapter
	Content     []byte
	ContentType string
}

// Ext is the file extension matching the content type.
func (p PageImage) Ext() string {
	switch p.contentType() {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	}
	return ".jpg"
}

func (p PageImage) contentType() string {
	ct := strings.TrimSpace(strings.SplitN(p.ContentType, ";", 2)[0])
	if ct == "" || ct == "application/octet-stream" {
		ct = http.DetectContentType(p.Content)
	}
	return ct
}

// Dimensions decodes only the image header.
func (p PageImage) Dimensions() (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(p.Content))
	if err != nil {
		return 0, 0, fmt.Errorf("failed to decode page %d: %w", p.Index+1, err)
	}
	return cfg.Width, cfg.Height, nil
}

func (p PageImage) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(p.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to decode page %d: %w", p.Index+1, err)
	}
	return img, nil
}

// RowsFor is the number of terminal rows a width x height page takes when
// drawn cols cells wide with half-block pixels (two pixels per row).
func RowsFor(width, height, cols int) int {
	if width <= 0 || height <= 0 || cols <= 0 {
		return 1
	}
	rows := (cols*height/width + 1) / 2
	if rows < 1 {
		return 1
	}
	return rows
}

// fitDimensions scales width x height down to fit maxWidth x maxHeight,
// keeping the aspect ratio. A zero bound is unbounded.
func fitDimensions(width, height, maxWidth, maxHeight int) (int, int) {
	scale := 1.0
	if maxWidth > 0 && width > maxWidth {
		scale = float64(maxWidth) / float64(width)
	}
	if maxHeight > 0 && height > maxHeight {
		if s := float64(maxHeight) / float64(height); s < scale {
			scale = s
		}
	}
	w, h := int(float64(width)*scale), int(float64(height)*scale)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Resize scales img to exactly width x height.
func Resize(img image.Image, width, height int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// RenderHalfBlocks draws img cols cells wide, at most rows rows high (0 for
// no limit), using "▀" with the upper pixel as foreground and the lower
// one as background.
func RenderHalfBlocks(img image.Image, cols, rows int) string {
	b := img.Bounds()
	if cols <= 0 || b.Dx() == 0 || b.Dy() == 0 {
		return ""
	}
	// scale to the full width first, then let the row limit shrink it
	w := cols
	h := cols * b.Dy() / b.Dx()
	w, h = fitDimensions(w, h, cols, rows*2)
	if h%2 == 1 {
		h++
	}
	scaled := Resize(img, w, h)

	var sb strings.Builder
	for y := 0; y < h; y += 2 {
		for x := 0; x < w; x++ {
			style := lipgloss.NewStyle().
				Foreground(hexColor(scaled.At(x, y))).
				Background(hexColor(scaled.At(x, y+1)))
			sb.WriteString(style.Render("▀"))
		}
		if y+2 < h {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hexColor(c color.Color) lipgloss.Color {
	r, g, b, _ := c.RGBA()
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", r>>8, g>>8, b>>8))
}
