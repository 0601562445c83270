package screens

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kerbaras/mangaread/pkg/app/styles"
	"github.com/kerbaras/mangaread/pkg/data"
	"github.com/kerbaras/mangaread/pkg/reader"
)

type SearchScreen struct {
	deps      *Deps
	input     textinput.Model
	results   []data.Manga
	selected  int
	searching bool
	adding    bool
	width     int
	height    int
	err       error
}

func NewSearchScreen(deps *Deps) *SearchScreen {
	ti := textinput.New()
	ti.Placeholder = "Search manga..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	return &SearchScreen{
		deps:    deps,
		input:   ti,
		results: []data.Manga{},
	}
}

func (s *SearchScreen) Init() tea.Cmd {
	return textinput.Blink
}

func (s *SearchScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height

	case tea.KeyMsg:
		if s.searching || s.adding {
			return s, nil
		}

		switch msg.String() {
		case "enter":
			if s.input.Focused() {
				if query := strings.TrimSpace(s.input.Value()); query != "" {
					s.searching = true
					return s, s.performSearch(query)
				}
			} else if len(s.results) > 0 {
				s.adding = true
				return s, s.addManga(s.results[s.selected].ID)
			}
			return s, nil

		case "esc":
			if s.input.Focused() {
				s.input.Blur()
			} else {
				s.input.Focus()
				cmd = textinput.Blink
			}
			return s, cmd

		case "up", "k":
			if !s.input.Focused() && len(s.results) > 0 {
				s.selected--
				if s.selected < 0 {
					s.selected = len(s.results) - 1
				}
				return s, nil
			}

		case "down", "j":
			if !s.input.Focused() && len(s.results) > 0 {
				s.selected = (s.selected + 1) % len(s.results)
				return s, nil
			}
		}

	case searchResultMsg:
		s.searching = false
		s.results = msg.results
		s.selected = 0
		s.err = msg.err
		if len(s.results) > 0 {
			s.input.Blur()
		}
		return s, nil

	case mangaAddedMsg:
		s.adding = false
		if msg.err != nil {
			s.err = msg.err
			return s, nil
		}
		return s, navigate(reader.MangaPath(msg.mangaID))
	}

	if s.input.Focused() {
		s.input, cmd = s.input.Update(msg)
	}

	return s, cmd
}

func (s *SearchScreen) View() string {
	if s.width == 0 {
		return "Loading..."
	}

	header := styles.TitleStyle.Render("🔍 Search Manga")

	inputStyle := styles.InputStyle
	if s.input.Focused() {
		inputStyle = styles.FocusedInputStyle
	}
	inputView := inputStyle.Render(s.input.View())

	var errorMsg string
	if s.err != nil {
		errorMsg = styles.StatusError.Render(fmt.Sprintf("Error: %s", s.err)) + "\n\n"
	}

	var resultsView string
	switch {
	case s.searching:
		resultsView = styles.StatusReading.Render("Searching...")
	case s.adding:
		resultsView = styles.StatusReading.Render("Adding to library...")
	case len(s.results) > 0:
		resultsView = s.renderResults()
	case s.input.Value() != "":
		resultsView = styles.MutedStyle.Render("No results found")
	}

	help := styles.HelpStyle.Render(
		"enter: search/add • esc: switch focus • ↑/k ↓/j: navigate • tab: library • q: quit",
	)

	return fmt.Sprintf("%s\n%s\n\n%s%s\n%s", header, inputView, errorMsg, resultsView, help)
}

func (s *SearchScreen) renderResults() string {
	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render(fmt.Sprintf("Found %d results:", len(s.results))))
	b.WriteString("\n\n")

	// one line per result keeps a long result list on screen
	start := 0
	if visible := s.height - 12; visible > 0 && s.selected >= visible {
		start = s.selected - visible + 1
	}
	for i := start; i < len(s.results); i++ {
		manga := s.results[i]
		line := fmt.Sprintf("%s %s", manga.Name, styles.MutedStyle.Render("· "+manga.Source))
		if i == s.selected && !s.input.Focused() {
			line = styles.SelectedStyle.Render("▸ "+manga.Name) + styles.MutedStyle.Render(" · "+manga.Source)
		} else {
			line = "  " + line
		}
		b.WriteString(lipgloss.NewStyle().MaxWidth(s.width - 2).Render(line))
		b.WriteString("\n")
	}

	if s.selected < len(s.results) && !s.input.Focused() {
		desc := s.results[s.selected].Description
		if len(desc) > 200 {
			desc = desc[:197] + "..."
		}
		if desc != "" {
			b.WriteString("\n")
			b.WriteString(styles.CardStyle.Width(s.width - 6).Render(styles.TextStyle.Render(desc)))
		}
	}

	return b.String()
}

type searchResultMsg struct {
	results []data.Manga
	err     error
}

type mangaAddedMsg struct {
	mangaID string
	err     error
}

func (s *SearchScreen) performSearch(query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reader.FetchTimeout)
		defer cancel()
		results, err := s.deps.Library.Search(ctx, query)
		return searchResultMsg{results: results, err: err}
	}
}

// addManga stores the manga and its chapter list in the library.
func (s *SearchScreen) addManga(mangaID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*reader.FetchTimeout)
		defer cancel()
		manga, _, err := s.deps.Library.AddManga(ctx, mangaID)
		if err != nil {
			return mangaAddedMsg{err: err}
		}
		return mangaAddedMsg{mangaID: manga.ID}
	}
}
