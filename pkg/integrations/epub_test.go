package integrations

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngPage(t *testing.T, index, w, h int) PageImage {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return PageImage{Index: index, Content: buf.Bytes(), ContentType: "image/png"}
}

func TestExportChapter(t *testing.T) {
	outputDir := t.TempDir()
	builder := NewEPubBuilder(outputDir)

	manga := &data.Manga{ID: "m1", Name: "Test: Manga", Description: "for export"}
	chapter := &data.Chapter{ID: "c1", MangaID: "m1", Volume: "1", Number: "3", Title: "Start"}

	path, err := builder.ExportChapter(manga, chapter, []PageImage{pngPage(t, 0, 4, 6), pngPage(t, 1, 4, 6)})
	require.NoError(t, err)

	assert.Equal(t, outputDir, filepath.Dir(path))
	assert.Equal(t, "Test_ Manga - Vol. 1, Ch. 3_ Start.epub", filepath.Base(path))

	zr, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer zr.Close()

	var images int
	for _, f := range zr.File {
		if strings.HasSuffix(f.Name, ".png") {
			images++
		}
	}
	assert.Equal(t, 2, images)

	// staging directories are removed
	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportChapterWithoutPages(t *testing.T) {
	builder := NewEPubBuilder(t.TempDir())
	_, err := builder.ExportChapter(&data.Manga{Name: "x"}, &data.Chapter{Number: "1"}, nil)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Plain", "Plain"},
		{"a/b\\c", "a_b_c"},
		{`What? "Really" <yes>|`, "What_ _Really_ _yes__"},
		{"  ..dots.. ", "dots"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in))
	}
}

func TestIsImageFile(t *testing.T) {
	assert.True(t, isImageFile("0001.PNG"))
	assert.True(t, isImageFile("a.webp"))
	assert.False(t, isImageFile("notes.txt"))
}
