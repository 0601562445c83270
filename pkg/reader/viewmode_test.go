package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampZoom(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{300, 200},
		{10, 50},
		{-40, 50},
		{137, 125},
		{138, 150},
		{100, 100},
		{112, 100},
		{113, 125},
		{199, 200},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampZoom(tt.in), "ClampZoom(%d)", tt.in)
	}
}

func TestClampZoomAlwaysValidStep(t *testing.T) {
	for pct := -100; pct <= 400; pct++ {
		assert.Contains(t, ZoomSteps, ClampZoom(pct))
	}
}

func TestZoomInOut(t *testing.T) {
	assert.Equal(t, 125, ZoomIn(100))
	assert.Equal(t, 200, ZoomIn(200))
	assert.Equal(t, 75, ZoomOut(100))
	assert.Equal(t, 50, ZoomOut(50))
}

func TestLayoutRenderedPages(t *testing.T) {
	vertical := Layout(Vertical, 100)
	assert.Equal(t, AllPages, vertical.Pages)
	assert.Equal(t, []int{1, 2, 3, 4}, vertical.VisiblePages(2, 4))

	for _, mode := range []ViewMode{SinglePage, DoublePage, FitWidth, FitHeight} {
		assert.Equal(t, CurrentPageOnly, Layout(mode, 100).Pages, mode.String())
	}

	assert.Equal(t, []int{2}, Layout(SinglePage, 100).VisiblePages(2, 4))
	assert.Equal(t, []int{2, 3}, Layout(DoublePage, 100).VisiblePages(2, 4))
	assert.Equal(t, []int{4}, Layout(DoublePage, 100).VisiblePages(4, 4))
	assert.Nil(t, Layout(SinglePage, 100).VisiblePages(1, 0))
}

func TestLayoutScaleAndSizing(t *testing.T) {
	d := Layout(FitHeight, 150)
	assert.Equal(t, 1.5, d.Scale)
	assert.Equal(t, SizingFitHeight, d.Sizing)

	assert.Equal(t, SizingFitWidth, Layout(FitWidth, 100).Sizing)
	assert.Equal(t, SizingSpread, Layout(DoublePage, 100).Sizing)
	assert.Equal(t, SizingNatural, Layout(SinglePage, 100).Sizing)
	// invalid zoom is snapped before scaling
	assert.Equal(t, 2.0, Layout(SinglePage, 900).Scale)
}

func TestViewModeNames(t *testing.T) {
	for _, mode := range []ViewMode{Vertical, SinglePage, DoublePage, FitWidth, FitHeight} {
		parsed, err := ParseViewMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, parsed)
	}

	_, err := ParseViewMode("sideways")
	assert.Error(t, err)
}

func TestViewModeNextCycles(t *testing.T) {
	mode := Vertical
	seen := map[ViewMode]bool{}
	for i := 0; i < 5; i++ {
		seen[mode] = true
		mode = mode.Next()
	}
	assert.Len(t, seen, 5)
	assert.Equal(t, Vertical, mode)
}
