package app

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/kerbaras/mangaread/pkg/app/screens"
)

type App struct {
	deps  *screens.Deps
	start string
}

// NewApp builds the terminal UI. start is the route shown first, for
// example "/manga/{id}/chapter/{chapterId}" to open a chapter directly.
func NewApp(deps *screens.Deps, start string) *App {
	return &App{deps: deps, start: start}
}

func (a *App) Run() error {
	model := screens.NewRootScreen(a.deps, a.start)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
