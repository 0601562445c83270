package reader

import "fmt"

type ViewMode int

const (
	Vertical ViewMode = iota
	SinglePage
	DoublePage
	FitWidth
	FitHeight
)

var viewModeNames = map[ViewMode]string{
	Vertical:   "vertical",
	SinglePage: "single",
	DoublePage: "double",
	FitWidth:   "fit-width",
	FitHeight:  "fit-height",
}

func (m ViewMode) String() string {
	if name, ok := viewModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ViewMode(%d)", int(m))
}

// Paged reports whether the mode shows one page (or spread) at a time.
func (m ViewMode) Paged() bool {
	return m != Vertical
}

// Next cycles through the modes in declaration order.
func (m ViewMode) Next() ViewMode {
	return (m + 1) % (FitHeight + 1)
}

func ParseViewMode(s string) (ViewMode, error) {
	for mode, name := range viewModeNames {
		if name == s {
			return mode, nil
		}
	}
	return Vertical, fmt.Errorf("unknown view mode %q", s)
}

// ZoomSteps are the only zoom levels a session can be in.
var ZoomSteps = []int{50, 75, 100, 125, 150, 175, 200}

const DefaultZoom = 100

// ClampZoom snaps pct to the nearest zoom step. Equidistant values go to
// the larger step.
func ClampZoom(pct int) int {
	best := ZoomSteps[0]
	bestDiff := abs(pct - best)
	for _, step := range ZoomSteps[1:] {
		if d := abs(pct - step); d <= bestDiff {
			best, bestDiff = step, d
		}
	}
	return best
}

// ZoomIn returns the next step above pct, or the largest step.
func ZoomIn(pct int) int {
	for _, step := range ZoomSteps {
		if step > pct {
			return step
		}
	}
	return ZoomSteps[len(ZoomSteps)-1]
}

// ZoomOut returns the next step below pct, or the smallest step.
func ZoomOut(pct int) int {
	for i := len(ZoomSteps) - 1; i >= 0; i-- {
		if ZoomSteps[i] < pct {
			return ZoomSteps[i]
		}
	}
	return ZoomSteps[0]
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

type Sizing int

const (
	SizingNatural Sizing = iota
	SizingFitWidth
	SizingFitHeight
	SizingSpread
)

type PageSet int

const (
	AllPages PageSet = iota
	CurrentPageOnly
)

// LayoutDirective tells the renderer how to draw the chapter.
type LayoutDirective struct {
	Scale  float64
	Sizing Sizing
	Pages  PageSet
}

// Layout maps a view mode and zoom level to render directives.
func Layout(mode ViewMode, zoomPercent int) LayoutDirective {
	d := LayoutDirective{
		Scale: float64(ClampZoom(zoomPercent)) / 100,
		Pages: CurrentPageOnly,
	}
	switch mode {
	case Vertical:
		d.Sizing = SizingFitWidth
		d.Pages = AllPages
	case DoublePage:
		d.Sizing = SizingSpread
	case FitWidth:
		d.Sizing = SizingFitWidth
	case FitHeight:
		d.Sizing = SizingFitHeight
	default:
		d.Sizing = SizingNatural
	}
	return d
}

// VisiblePages lists the 1-based pages the directive renders when the
// reader is at current. A double page spread shows current and its
// successor.
func (d LayoutDirective) VisiblePages(current, total int) []int {
	if total <= 0 {
		return nil
	}
	if d.Pages == AllPages {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}
	if current < 1 || current > total {
		return nil
	}
	if d.Sizing == SizingSpread && current < total {
		return []int{current, current + 1}
	}
	return []int{current}
}
