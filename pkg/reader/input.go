package reader

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type Action int

const (
	ActionNone Action = iota
	ActionPreviousPage
	ActionNextPage
	ActionFirstPage
	ActionLastPage
	ActionExit
	ActionZoomIn
	ActionZoomOut
	ActionResetZoom
	ActionCycleViewMode
	ActionPreviousChapter
	ActionNextChapter
	ActionToggleAutoProgress
	ActionEnterPage
)

// KeyMap defines the reader key bindings.
type KeyMap struct {
	PrevPage     key.Binding
	NextPage     key.Binding
	ScrollPrev   key.Binding // paged modes only
	ScrollNext   key.Binding // paged modes only
	FirstPage    key.Binding
	LastPage     key.Binding
	Exit         key.Binding
	ZoomIn       key.Binding
	ZoomOut      key.Binding
	ZoomReset    key.Binding
	ViewMode     key.Binding
	PrevChapter  key.Binding
	NextChapter  key.Binding
	AutoProgress key.Binding
	GoToPage     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		PrevPage: key.NewBinding(
			key.WithKeys("left", "a"),
			key.WithHelp("←/a", "prev page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right", "d"),
			key.WithHelp("→/d", "next page"),
		),
		ScrollPrev: key.NewBinding(
			key.WithKeys("up", "w"),
			key.WithHelp("↑/w", "prev page"),
		),
		ScrollNext: key.NewBinding(
			key.WithKeys("down", "s"),
			key.WithHelp("↓/s", "next page"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("Home", "first page"),
		),
		LastPage: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("End", "last page"),
		),
		Exit: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		ZoomIn: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "zoom in"),
		),
		ZoomOut: key.NewBinding(
			key.WithKeys("-", "_"),
			key.WithHelp("-", "zoom out"),
		),
		ZoomReset: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "reset zoom"),
		),
		ViewMode: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "view mode"),
		),
		PrevChapter: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev chapter"),
		),
		NextChapter: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next chapter"),
		),
		AutoProgress: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "auto progress"),
		),
		GoToPage: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "go to page"),
		),
	}
}

// InputRouter maps terminal input to reader actions.
type InputRouter struct {
	keys KeyMap
}

func NewInputRouter(keys KeyMap) InputRouter {
	return InputRouter{keys: keys}
}

func (r InputRouter) RouteKey(msg tea.KeyMsg, mode ViewMode) Action {
	switch {
	case key.Matches(msg, r.keys.PrevPage):
		return ActionPreviousPage
	case key.Matches(msg, r.keys.NextPage):
		return ActionNextPage
	case key.Matches(msg, r.keys.ScrollPrev):
		// in vertical mode up/down belong to the scroll view
		if mode.Paged() {
			return ActionPreviousPage
		}
	case key.Matches(msg, r.keys.ScrollNext):
		if mode.Paged() {
			return ActionNextPage
		}
	case key.Matches(msg, r.keys.FirstPage):
		return ActionFirstPage
	case key.Matches(msg, r.keys.LastPage):
		return ActionLastPage
	case key.Matches(msg, r.keys.Exit):
		return ActionExit
	case key.Matches(msg, r.keys.ZoomIn):
		return ActionZoomIn
	case key.Matches(msg, r.keys.ZoomOut):
		return ActionZoomOut
	case key.Matches(msg, r.keys.ZoomReset):
		return ActionResetZoom
	case key.Matches(msg, r.keys.ViewMode):
		return ActionCycleViewMode
	case key.Matches(msg, r.keys.PrevChapter):
		return ActionPreviousChapter
	case key.Matches(msg, r.keys.NextChapter):
		return ActionNextChapter
	case key.Matches(msg, r.keys.AutoProgress):
		return ActionToggleAutoProgress
	case key.Matches(msg, r.keys.GoToPage):
		return ActionEnterPage
	}
	return ActionNone
}

// RouteMouse maps a mouse event. qualifying reports whether the event
// should reveal the controls (motion and clicks do; wheel does not).
// A left click in the left or right third of the screen turns the page in
// paged modes.
func (r InputRouter) RouteMouse(msg tea.MouseMsg, mode ViewMode, width int) (action Action, qualifying bool) {
	switch msg.Action {
	case tea.MouseActionMotion:
		return ActionNone, true
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return ActionNone, false
		}
		if !mode.Paged() || width <= 0 {
			return ActionNone, true
		}
		switch {
		case msg.X < width/3:
			return ActionPreviousPage, true
		case msg.X >= width-width/3:
			return ActionNextPage, true
		}
		return ActionNone, true
	}
	return ActionNone, false
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevPage, k.NextPage, k.ViewMode, k.ZoomIn, k.ZoomOut, k.Exit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevPage, k.NextPage, k.ScrollPrev, k.ScrollNext, k.FirstPage, k.LastPage},
		{k.ZoomIn, k.ZoomOut, k.ZoomReset, k.ViewMode},
		{k.PrevChapter, k.NextChapter, k.AutoProgress, k.GoToPage, k.Exit},
	}
}
