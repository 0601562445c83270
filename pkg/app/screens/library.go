package screens

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kerbaras/mangaread/pkg/app/components"
	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/reader"
)

type LibraryScreen struct {
	deps      *Deps
	mangaList *components.MangaList
	width     int
	height    int
	err       error
}

func NewLibraryScreen(deps *Deps) *LibraryScreen {
	return &LibraryScreen{
		deps:      deps,
		mangaList: components.NewMangaList(),
	}
}

func (s *LibraryScreen) Init() tea.Cmd {
	return s.loadLibrary
}

func (s *LibraryScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
		s.mangaList.Width = msg.Width - 4
		s.mangaList.Height = msg.Height - 8

	case tea.KeyMsg:
		selected := s.mangaList.Selected()
		switch msg.String() {
		case "up", "k":
			s.mangaList.Prev()
		case "down", "j":
			s.mangaList.Next()
		case "r":
			return s, s.loadLibrary
		case "d":
			if selected != nil {
				return s, s.deleteManga(selected.Manga.ID)
			}
		case "enter":
			if selected != nil {
				return s, navigate(reader.MangaPath(selected.Manga.ID))
			}
		case "c":
			// continue where the user stopped
			if selected != nil && selected.Last != nil {
				return s, navigate(reader.ChapterPath(selected.Manga.ID, selected.Last.ChapterID))
			}
		}

	case libraryLoadedMsg:
		s.err = msg.err
		if msg.err == nil {
			s.mangaList.SetItems(msg.items)
		}

	case mangaDeletedMsg:
		s.err = msg.err
		return s, s.loadLibrary
	}

	return s, nil
}

func (s *LibraryScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render("📚 Manga Library")

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)) + "\n\n"
	}

	help := styles.HelpStyle.Render(
		"↑/k: up • ↓/j: down • enter: chapters • c: continue reading • d: delete • r: refresh • tab: search • q: quit",
	)

	return fmt.Sprintf("%s\n%s%s\n%s", header, errorMsg, s.mangaList.View(), help)
}

type libraryLoadedMsg struct {
	items []components.MangaListItem
	err   error
}

type mangaDeletedMsg struct {
	err error
}

func (s *LibraryScreen) loadLibrary() tea.Msg {
	items, err := s.deps.Library.Summaries()
	return libraryLoadedMsg{items: items, err: err}
}

func (s *LibraryScreen) deleteManga(mangaID string) tea.Cmd {
	return func() tea.Msg {
		return mangaDeletedMsg{err: s.deps.Library.RemoveManga(mangaID)}
	}
}
