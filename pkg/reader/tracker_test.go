package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func uniformHeights(n, h int) []int {
	heights := make([]int, n)
	for i := range heights {
		heights[i] = h
	}
	return heights
}

func TestPageHandlesBounds(t *testing.T) {
	handles := NewPageHandles(uniformHeights(10, 10), 0)

	assert.Equal(t, 10, handles.Len())
	assert.Equal(t, 100, handles.ContentHeight())

	r, ok := handles.Get(5)
	assert.True(t, ok)
	assert.Equal(t, PageRect{Top: 40, Bottom: 49}, r)

	_, ok = handles.Get(0)
	assert.False(t, ok)
	_, ok = handles.Get(11)
	assert.False(t, ok)
}

func TestPageHandlesPageAt(t *testing.T) {
	handles := NewPageHandles([]int{5, 20, 5}, 2)
	// page 1: 0-4, gap, page 2: 7-26, gap, page 3: 29-33

	page, ok := handles.PageAt(0)
	assert.True(t, ok)
	assert.Equal(t, 1, page)

	page, ok = handles.PageAt(26)
	assert.True(t, ok)
	assert.Equal(t, 2, page)

	_, ok = handles.PageAt(5)
	assert.False(t, ok, "gap rows belong to no page")

	_, ok = handles.PageAt(500)
	assert.False(t, ok)
}

func TestPageTrackerMidpoint(t *testing.T) {
	tracker := NewPageTracker(NewPageHandles(uniformHeights(10, 10), 0), 1)

	// viewport rows 20-69, midpoint 45 lies in page 5 (40-49)
	page, changed := tracker.Track(20, 50)
	assert.True(t, changed)
	assert.Equal(t, 5, page)

	// still page 5: no change reported
	page, changed = tracker.Track(22, 50)
	assert.False(t, changed)
	assert.Equal(t, 5, page)
}

func TestPageTrackerSync(t *testing.T) {
	tracker := NewPageTracker(NewPageHandles(uniformHeights(10, 10), 0), 1)
	tracker.Sync(5)

	_, changed := tracker.Track(20, 50)
	assert.False(t, changed)

	offset, ok := tracker.Offset(7)
	assert.True(t, ok)
	assert.Equal(t, 60, offset)
}

func BenchmarkPageTrackerLongChapter(b *testing.B) {
	tracker := NewPageTracker(NewPageHandles(uniformHeights(5000, 40), 1), 1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tracker.Track(i%200000, 50)
	}
}
