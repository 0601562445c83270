package reader

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestRouteKey(t *testing.T) {
	router := NewInputRouter(DefaultKeyMap())

	tests := []struct {
		key  string
		mode ViewMode
		want Action
	}{
		{"left", Vertical, ActionPreviousPage},
		{"a", Vertical, ActionPreviousPage},
		{"right", Vertical, ActionNextPage},
		{"d", SinglePage, ActionNextPage},
		{"up", Vertical, ActionNone},
		{"w", Vertical, ActionNone},
		{"down", Vertical, ActionNone},
		{"s", Vertical, ActionNone},
		{"up", SinglePage, ActionPreviousPage},
		{"w", FitWidth, ActionPreviousPage},
		{"down", DoublePage, ActionNextPage},
		{"s", FitHeight, ActionNextPage},
		{"esc", Vertical, ActionExit},
		{"+", Vertical, ActionZoomIn},
		{"-", Vertical, ActionZoomOut},
		{"0", Vertical, ActionResetZoom},
		{"v", Vertical, ActionCycleViewMode},
		{"[", Vertical, ActionPreviousChapter},
		{"]", Vertical, ActionNextChapter},
		{"p", Vertical, ActionToggleAutoProgress},
		{"g", Vertical, ActionEnterPage},
		{"x", Vertical, ActionNone},
	}

	for _, tt := range tests {
		t.Run(tt.key+"/"+tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, router.RouteKey(keyMsg(tt.key), tt.mode))
		})
	}
}

func click(x int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func TestRouteMouseThirds(t *testing.T) {
	router := NewInputRouter(DefaultKeyMap())

	action, qualifying := router.RouteMouse(click(10), SinglePage, 90)
	assert.Equal(t, ActionPreviousPage, action)
	assert.True(t, qualifying)

	action, _ = router.RouteMouse(click(45), SinglePage, 90)
	assert.Equal(t, ActionNone, action)

	action, _ = router.RouteMouse(click(80), SinglePage, 90)
	assert.Equal(t, ActionNextPage, action)
}

func TestRouteMouseZonesInactiveInVertical(t *testing.T) {
	router := NewInputRouter(DefaultKeyMap())

	action, qualifying := router.RouteMouse(click(5), Vertical, 90)
	assert.Equal(t, ActionNone, action)
	assert.True(t, qualifying, "a click still reveals the controls")
}

func TestRouteMouseMotionAndWheel(t *testing.T) {
	router := NewInputRouter(DefaultKeyMap())

	_, qualifying := router.RouteMouse(tea.MouseMsg{Action: tea.MouseActionMotion}, SinglePage, 90)
	assert.True(t, qualifying)

	action, qualifying := router.RouteMouse(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown}, SinglePage, 90)
	assert.Equal(t, ActionNone, action)
	assert.False(t, qualifying)
}
