package reader

import "sort"

// PageRect is the vertical extent of a page element in content
// coordinates (rows in the terminal renderer).
type PageRect struct {
	Top    int
	Bottom int
}

// PageHandles is an indexed, bounds-checked view of the rendered pages.
// Pages are 1-based and laid out top to bottom without overlap.
type PageHandles struct {
	rects []PageRect
}

// NewPageHandles stacks pages of the given heights separated by gap rows.
func NewPageHandles(heights []int, gap int) *PageHandles {
	rects := make([]PageRect, len(heights))
	y := 0
	for i, h := range heights {
		if h < 1 {
			h = 1
		}
		rects[i] = PageRect{Top: y, Bottom: y + h - 1}
		y += h + gap
	}
	return &PageHandles{rects: rects}
}

func (h *PageHandles) Len() int {
	if h == nil {
		return 0
	}
	return len(h.rects)
}

// Get returns the rect of page (1-based).
func (h *PageHandles) Get(page int) (PageRect, bool) {
	if page < 1 || page > h.Len() {
		return PageRect{}, false
	}
	return h.rects[page-1], true
}

// ContentHeight is the row just past the last page.
func (h *PageHandles) ContentHeight() int {
	if h.Len() == 0 {
		return 0
	}
	return h.rects[len(h.rects)-1].Bottom + 1
}

// PageAt returns the first page whose rect contains y.
func (h *PageHandles) PageAt(y int) (int, bool) {
	n := h.Len()
	i := sort.Search(n, func(i int) bool { return h.rects[i].Bottom >= y })
	if i == n || h.rects[i].Top > y {
		return 0, false
	}
	return i + 1, true
}

// PageTracker turns scroll positions into the current page for the
// vertical view. Scroll callbacks are frequent, so lookups are O(log n)
// and an unchanged page is not reported again.
type PageTracker struct {
	handles *PageHandles
	last    int
}

func NewPageTracker(handles *PageHandles, current int) *PageTracker {
	return &PageTracker{handles: handles, last: current}
}

// Track reports the page straddling the viewport midpoint. changed is false
// when no page straddles it or it is the page already reported.
func (t *PageTracker) Track(scrollTop, viewportHeight int) (page int, changed bool) {
	mid := scrollTop + viewportHeight/2
	page, ok := t.handles.PageAt(mid)
	if !ok || page == t.last {
		return t.last, false
	}
	t.last = page
	return page, true
}

// Sync records a page change made by other means (keys, page input) so the
// next scroll tick is compared against it.
func (t *PageTracker) Sync(page int) {
	t.last = page
}

// Offset is the scroll position that brings page to the top of the viewport.
func (t *PageTracker) Offset(page int) (int, bool) {
	r, ok := t.handles.Get(page)
	if !ok {
		return 0, false
	}
	return r.Top, true
}

func (t *PageTracker) Handles() *PageHandles {
	return t.handles
}
